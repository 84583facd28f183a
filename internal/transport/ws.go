// Package transport exposes the session pipeline over a websocket endpoint:
// binary audio frames in, UTF-8 JSON transcript events out.
package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"asr-session-service/internal/models"
	"asr-session-service/internal/observability"
	"asr-session-service/internal/observability/logging"
	"asr-session-service/internal/session"
)

// DefaultUserID is assigned when a connection carries no owner identity.
const DefaultUserID = "anonymous"

// Handler upgrades transcription connections and runs one orchestrator per
// connection.
type Handler struct {
	deps     session.Deps
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler creates the websocket handler. With allowAnyOrigin set the
// origin check is disabled (development/telephony gateways).
func NewHandler(deps session.Deps, allowAnyOrigin bool) *Handler {
	h := &Handler{
		deps: deps,
		log:  logging.WithComponent("transport"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if allowAnyOrigin {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return h
}

// ServeTranscribe handles GET /ws/transcribe/{sessionID}. The caller-supplied
// session id keys every store operation; an optional ?user= query parameter
// names the owning user.
func (h *Handler) ServeTranscribe(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = DefaultUserID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("sessionId", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	orch := session.New(h.deps, sessionID, userID)
	if err := orch.Run(r.Context(), newWSConn(conn)); err != nil {
		h.log.Error().Err(err).Str("sessionId", sessionID).Msg("session ended with error")
	}
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/ws/transcribe/{sessionID}", h.ServeTranscribe)

	return r
}

// wsConn adapts a gorilla connection to the orchestrator's Conn. The
// orchestrator is the only goroutine reading or writing, which satisfies
// gorilla's single reader/writer requirement.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// ReadFrame blocks until the next binary audio frame. Inbound text and
// control messages are not part of the audio stream and are skipped.
func (c *wsConn) ReadFrame() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// WriteEvent marshals the event and writes it as one text frame. A failed
// marshal cannot happen for TranscriptEvent, but the error is propagated
// rather than emitting corrupted JSON.
func (c *wsConn) WriteEvent(ev models.TranscriptEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}
