package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docvoice/docvoice/internal/api"
	"github.com/docvoice/docvoice/internal/config"
	"github.com/docvoice/docvoice/internal/pipeline"
	"github.com/docvoice/docvoice/internal/tts"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tuning, err := config.LoadTuning(os.Getenv("DOCVOICE_TUNING_FILE"))
	if err != nil {
		log.Error("invalid tuning file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize TTS client.
	client := tts.NewClient(tts.Config{
		BaseURL:    cfg.TTSBaseURL,
		APIKey:     cfg.TTSAPIKey,
		Model:      cfg.TTSModel,
		Voice:      cfg.TTSVoice,
		Speed:      cfg.TTSSpeed,
		SampleRate: cfg.SampleRate,
	})
	stats := tts.NewStats(time.Hour)
	newSynth := func(voice string, speed float64) pipeline.Synthesizer {
		return client.WithVoice(voice, speed)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, tuning, newSynth, stats, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docvoice", "port", cfg.Port, "tts_base_url", cfg.TTSBaseURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
