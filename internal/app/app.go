// Package app wires configuration, stores, the recognizer and the event
// publisher into a running application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"asr-session-service/internal/audio"
	"asr-session-service/internal/config"
	"asr-session-service/internal/events"
	"asr-session-service/internal/observability/logging"
	"asr-session-service/internal/recognizer"
	"asr-session-service/internal/recognizer/mock"
	"asr-session-service/internal/sequence"
	"asr-session-service/internal/session"
	"asr-session-service/internal/storage"
	"asr-session-service/internal/worker"
)

// Application holds process-wide state and the wired pipeline components.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Redis       *storage.RedisStore
	DB          *storage.SQLStore
	Sequencer   *sequence.Sequencer
	Coordinator *storage.Coordinator
	Processor   *audio.Processor
	Engine      recognizer.Engine
	Pool        *worker.Pool
	Publisher   *events.Publisher
}

// New constructs the application: it initializes logging, connects both
// stores, and builds every pipeline component from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		StartupTime: time.Now().UTC(),
		Logger:      logging.Logger().With().Str("component", "application").Logger(),
		Cfg:         cfg,
	}

	enc, err := audio.ParseEncoding(cfg.Audio.Encoding)
	if err != nil {
		return nil, err
	}
	a.Processor, err = audio.NewProcessor(enc, cfg.Audio.SourceSampleRate, cfg.Audio.TargetSampleRate)
	if err != nil {
		return nil, err
	}

	a.Engine, err = newEngine(cfg.Recognizer, cfg.Audio.TargetSampleRate)
	if err != nil {
		return nil, err
	}

	a.Redis, err = storage.NewRedisStore(ctx, storage.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		DraftTTL: cfg.Redis.DraftTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect volatile store: %w", err)
	}

	a.DB, err = storage.OpenSQLStore(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		a.Redis.Close()
		return nil, fmt.Errorf("open durable store: %w", err)
	}

	a.Sequencer = sequence.New(a.Redis)
	a.Coordinator = storage.NewCoordinator(a.Redis, a.DB, a.Sequencer)
	a.Pool = worker.NewPool(cfg.Recognizer.PoolWorkers)
	a.Publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})

	a.Logger.Info().
		Str("encoding", cfg.Audio.Encoding).
		Int("sourceRate", cfg.Audio.SourceSampleRate).
		Int("targetRate", cfg.Audio.TargetSampleRate).
		Str("recognizer", a.Engine.Name()).
		Msg("application created")
	return a, nil
}

// Deps returns the per-connection pipeline dependencies.
func (a *Application) Deps() session.Deps {
	return session.Deps{
		Processor:   a.Processor,
		Engine:      a.Engine,
		Pool:        a.Pool,
		Coordinator: a.Coordinator,
		Sequencer:   a.Sequencer,
		Events:      a.Publisher,
	}
}

// Shutdown releases external resources. Best effort; errors are logged,
// not returned.
func (a *Application) Shutdown() {
	log := a.Logger.With().Str("method", "Shutdown").Logger()
	log.Info().Msg("application shutting down")

	if err := a.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event publisher")
	}
	if err := a.Redis.Close(); err != nil {
		log.Error().Err(err).Msg("error closing volatile store")
	}
	if err := a.DB.Close(); err != nil {
		log.Error().Err(err).Msg("error closing durable store")
	}
}

func newEngine(cfg config.RecognizerConfig, sampleRate int) (recognizer.Engine, error) {
	switch cfg.Provider {
	case "mock", "":
		return mock.New(sampleRate), nil
	default:
		return nil, fmt.Errorf("unknown recognizer provider %q", cfg.Provider)
	}
}
