package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"asr-session-service/internal/audio"
	"asr-session-service/internal/models"
	"asr-session-service/internal/recognizer/mock"
	"asr-session-service/internal/sequence"
	"asr-session-service/internal/session"
	"asr-session-service/internal/storage"
	"asr-session-service/internal/worker"
)

type memCounter struct {
	values map[string]int64
}

func (c *memCounter) Incr(_ context.Context, key string) (int64, error) {
	c.values[key]++
	return c.values[key], nil
}

func (c *memCounter) Get(_ context.Context, key string) (int64, error) {
	return c.values[key], nil
}

type memDrafts struct {
	drafts map[string]models.Draft
}

func (f *memDrafts) PutDraft(_ context.Context, sessionID string, d models.Draft) error {
	f.drafts[sessionID] = d
	return nil
}

func (f *memDrafts) GetDraft(_ context.Context, sessionID string) (models.Draft, bool, error) {
	d, ok := f.drafts[sessionID]
	return d, ok, nil
}

func (f *memDrafts) DeleteDraft(_ context.Context, sessionID string) error {
	delete(f.drafts, sessionID)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.SQLStore) {
	t.Helper()

	proc, err := audio.NewProcessor(audio.EncodingLinear16, 16000, 16000)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	store, err := storage.OpenSQLStore(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	seq := sequence.New(&memCounter{values: make(map[string]int64)})
	deps := session.Deps{
		Processor: proc,
		Engine: mock.NewWithScript(16000, []mock.Utterance{
			{Partials: []string{"hello", "hello world"}, Final: "hello world."},
		}),
		Pool:        worker.NewPool(2),
		Coordinator: storage.NewCoordinator(&memDrafts{drafts: make(map[string]models.Draft)}, store, seq),
		Sequencer:   seq,
	}

	srv := httptest.NewServer(NewRouter(NewHandler(deps, true)))
	t.Cleanup(srv.Close)
	return srv, store
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readEvent(t *testing.T, conn *websocket.Conn) models.TranscriptEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("expected text frame, got type %d", mt)
	}
	var ev models.TranscriptEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("invalid event JSON %q: %v", data, err)
	}
	return ev
}

func TestTranscribe_EndToEnd(t *testing.T) {
	srv, store := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/transcribe/sess-ws?user=user-9"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frame := make([]byte, 320)
	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}

	ev := readEvent(t, conn)
	if ev.Type != "partial" || ev.Text != "hello" || ev.Seq != 1 {
		t.Errorf("event 1: unexpected %+v", ev)
	}
	ev = readEvent(t, conn)
	if ev.Type != "partial" || ev.Text != "hello world" {
		t.Errorf("event 2: unexpected %+v", ev)
	}
	ev = readEvent(t, conn)
	if ev.Type != "final" || ev.Text != "hello world." || ev.Seq != 1 {
		t.Errorf("event 3: unexpected %+v", ev)
	}

	conn.Close()
	// Give the server loop a moment to observe the close.
	time.Sleep(50 * time.Millisecond)

	segs, err := store.SegmentsForSession(context.Background(), "sess-ws")
	if err != nil {
		t.Fatalf("SegmentsForSession: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 committed segment, got %d", len(segs))
	}
	if segs[0].Text != "hello world." || segs[0].Seq != 1 {
		t.Errorf("unexpected segment %+v", segs[0])
	}

	sess, err := store.GetSession(context.Background(), "sess-ws")
	if err != nil || sess == nil {
		t.Fatalf("expected session row, err=%v", err)
	}
	if sess.UserID != "user-9" {
		t.Errorf("expected owner user-9, got %s", sess.UserID)
	}
}

func TestTranscribe_TextMessagesIgnored(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/transcribe/sess-txt"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, 320)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != "partial" || ev.Text != "hello" {
		t.Errorf("expected first scripted partial, got %+v", ev)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}
