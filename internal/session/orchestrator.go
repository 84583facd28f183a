package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"asr-session-service/internal/audio"
	"asr-session-service/internal/models"
	"asr-session-service/internal/observability/logging"
	"asr-session-service/internal/observability/metrics"
	"asr-session-service/internal/recognizer"
	"asr-session-service/internal/sequence"
	"asr-session-service/internal/storage"
	"asr-session-service/internal/worker"
)

// Conn is the transport-facing side of one session connection. ReadFrame
// blocks until an inbound binary audio frame arrives or the connection
// closes.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteEvent(ev models.TranscriptEvent) error
}

// EventSink receives a copy of every emitted transcript event for fan-out
// beyond the websocket (e.g. Kafka). Sink errors never fail the loop.
type EventSink interface {
	PublishPartial(ctx context.Context, sessionID string, ev models.TranscriptEvent) error
	PublishFinal(ctx context.Context, sessionID string, ev models.TranscriptEvent) error
}

// Deps are the process-wide collaborators shared by all orchestrators.
type Deps struct {
	Processor   *audio.Processor
	Engine      recognizer.Engine
	Pool        *worker.Pool
	Coordinator *storage.Coordinator
	Sequencer   *sequence.Sequencer
	Events      EventSink // optional
}

// Orchestrator drives the pipeline for one connection: receive frame →
// codec → recognizer → persistence → emit. It owns the session lifecycle
// and the advisory display counter.
type Orchestrator struct {
	sessionID string
	userID    string

	proc    *audio.Processor
	engine  recognizer.Engine
	pool    *worker.Pool
	store   *storage.Coordinator
	seq     *sequence.Sequencer
	events  EventSink
	adapter *recognizer.Adapter

	lc      *lifecycle
	log     zerolog.Logger
	metrics *metrics.Metrics

	// nextSeq labels partial events for client display. It is advisory
	// only: the authoritative sequence is allocated by the sequencer at
	// final-commit time. Two concurrent connections for the same session
	// id may display overlapping partial seq values; that is a known,
	// display-only artifact.
	nextSeq int64
}

// New creates an orchestrator for one connection.
func New(deps Deps, sessionID, userID string) *Orchestrator {
	return &Orchestrator{
		sessionID: sessionID,
		userID:    userID,
		proc:      deps.Processor,
		engine:    deps.Engine,
		pool:      deps.Pool,
		store:     deps.Coordinator,
		seq:       deps.Sequencer,
		events:    deps.Events,
		lc:        newLifecycle(),
		log:       logging.WithSessionUser(sessionID, userID),
		metrics:   metrics.DefaultMetrics,
	}
}

// State returns the connection's lifecycle state.
func (o *Orchestrator) State() State {
	return o.lc.State()
}

// Run activates the session and processes frames until the transport
// closes, the context is cancelled, or activation fails. Frames of one
// session are handled strictly in arrival order; every offloaded step is
// awaited before the next frame is read.
func (o *Orchestrator) Run(ctx context.Context, conn Conn) error {
	if err := o.activate(ctx); err != nil {
		o.lc.Close()
		o.metrics.SessionsFailed.Inc()
		return fmt.Errorf("activate session %s: %w", o.sessionID, err)
	}

	o.metrics.RecordSessionStart()
	start := time.Now()
	defer func() {
		o.teardown()
		o.metrics.RecordSessionEnd(time.Since(start))
	}()

	o.log.Info().Int64("nextSeq", o.nextSeq).Msg("session active")

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			// Disconnects and malformed receives both end the loop
			// cleanly; the draft is left to expire via its TTL so a
			// reconnect with the same session id can resume.
			o.log.Info().AnErr("cause", err).Msg("session closed")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := o.handleFrame(ctx, conn, frame); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (o *Orchestrator) activate(ctx context.Context) error {
	next, err := o.seq.RecoverNext(ctx, o.sessionID)
	if err != nil {
		return err
	}
	if err := o.store.EnsureSessionExists(ctx, o.sessionID, o.userID); err != nil {
		return err
	}
	stream, err := o.engine.NewStream()
	if err != nil {
		return fmt.Errorf("create recognizer stream: %w", err)
	}
	o.adapter = recognizer.NewAdapter(stream, o.engine.SampleRate(), o.pool)
	o.nextSeq = next
	return o.lc.Activate()
}

func (o *Orchestrator) teardown() {
	o.lc.Close()
	if o.adapter != nil {
		if err := o.adapter.Close(); err != nil {
			o.log.Warn().Err(err).Msg("recognizer stream close failed")
		}
	}
	// No persistence action on disconnect.
}

// handleFrame runs one full pipeline pass for one frame. Transient decode
// and inference failures skip the frame and keep the connection open; only
// transport write errors and cancellation propagate.
func (o *Orchestrator) handleFrame(ctx context.Context, conn Conn, frame []byte) error {
	o.metrics.RecordFrame(len(frame))

	var (
		samples []float32
		decErr  error
	)
	if err := o.pool.Do(ctx, func() {
		samples, decErr = o.proc.Process(frame)
	}); err != nil {
		return err
	}
	if decErr != nil {
		o.metrics.DecodeErrors.Inc()
		o.log.Warn().Err(decErr).Int("frameBytes", len(frame)).Msg("audio decode failed, frame skipped")
		return nil
	}

	inferStart := time.Now()
	text, final, err := o.adapter.Infer(ctx, samples)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		o.metrics.InferenceErrors.Inc()
		o.log.Warn().Err(err).Msg("inference failed, frame skipped")
		return nil
	}
	o.metrics.InferenceLatency.Observe(time.Since(inferStart).Seconds())

	if text == "" {
		// Nothing new yet; neither persisted nor emitted.
		return nil
	}

	if final {
		return o.emitFinal(ctx, conn, text)
	}
	return o.emitPartial(ctx, conn, text)
}

func (o *Orchestrator) emitFinal(ctx context.Context, conn Conn, text string) error {
	ev := models.TranscriptEvent{Type: models.EventFinal, Text: text}

	seg, err := o.store.SaveFinal(ctx, o.sessionID, text)
	if err != nil {
		// Commit failed: fall back to the advisory counter for display
		// and still advance it. The allocated sequence (if any) stays a
		// permanent gap.
		ev.Seq = o.nextSeq
		o.nextSeq++
		o.log.Error().Err(err).Int64("seq", ev.Seq).Msg("final commit failed")
	} else {
		ev.Seq = seg.Seq
		o.nextSeq = seg.Seq + 1
	}

	if err := conn.WriteEvent(ev); err != nil {
		return fmt.Errorf("write final event: %w", err)
	}
	o.metrics.FinalsEmitted.Inc()
	o.publish(ctx, ev)
	return nil
}

func (o *Orchestrator) emitPartial(ctx context.Context, conn Conn, text string) error {
	// Partials never advance the authoritative counter.
	ev := models.TranscriptEvent{Type: models.EventPartial, Text: text, Seq: o.nextSeq}

	if err := o.store.SavePartial(ctx, o.sessionID, text, o.nextSeq); err != nil {
		// Degraded draft visibility only; the connection stays open.
		o.log.Warn().Err(err).Msg("draft write failed")
	}

	if err := conn.WriteEvent(ev); err != nil {
		return fmt.Errorf("write partial event: %w", err)
	}
	o.metrics.PartialsEmitted.Inc()
	o.publish(ctx, ev)
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, ev models.TranscriptEvent) {
	if o.events == nil {
		return
	}
	var err error
	if ev.Type == models.EventFinal {
		err = o.events.PublishFinal(ctx, o.sessionID, ev)
	} else {
		err = o.events.PublishPartial(ctx, o.sessionID, ev)
	}
	if err != nil {
		o.log.Warn().Err(err).Str("type", ev.Type).Msg("event publish failed")
	}
}
