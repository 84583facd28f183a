package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"asr-session-service/internal/app"
	"asr-session-service/internal/config"
	"asr-session-service/internal/observability"
	"asr-session-service/internal/transport"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}
	defer a.Shutdown()

	obs := observability.NewServer(cfg.Service.MetricsAddr)
	obs.Start()

	handler := transport.NewHandler(a.Deps(), true)
	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     transport.NewRouter(handler),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("session transport listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	// Stores are connected, the transport is up: report ready.
	obs.SetReady(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	obs.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down session transport")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down observability server")
	}
}
