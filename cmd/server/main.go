package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docchunk/internal/api"
	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/indexclient"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/store"
	"github.com/dgallion1/docchunk/internal/tokenizer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		log.Error("tokenizer init failed", "tokenizer", cfg.Tokenizer, "error", err)
		os.Exit(1)
	}
	c, err := chunker.New(tok, cfg.Budget())
	if err != nil {
		log.Error("chunker init failed", "error", err)
		os.Exit(1)
	}

	reg, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("store open failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// Interface values stay nil unless an index is configured.
	var (
		idx   *indexclient.Client
		index pipeline.Indexer
		admin api.IndexAdmin
	)
	if cfg.IndexURL != "" {
		idx = indexclient.NewClient(cfg.IndexURL, cfg.IndexAPIKey)
		index, admin = idx, idx
	}

	orch := pipeline.NewOrchestrator(cfg, c, reg, index, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, reg, admin, log, cfg)

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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if idx != nil {
			idx.Close()
		}
		reg.Close()
	}()

	log.Info("starting docchunk",
		"port", cfg.Port,
		"tokenizer", tok.Name(),
		"budget", cfg.Budget(),
		"indexing", cfg.IndexURL != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
