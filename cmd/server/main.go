package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"simpleseq/internal/api"
	"simpleseq/internal/config"
	"simpleseq/internal/engine"
	"simpleseq/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("SEQ_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logging.New(os.Stderr, "info", "json")
		l.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := engine.OpenStore(context.Background(), engine.CommitLogCfg{
		Path:                   cfg.CommitLogPath(),
		EnqueueTimeoutInSecond: cfg.CommitLog.EnqueueTimeout,
		FlushIntervalInSecond:  cfg.CommitLog.FlushInterval,
		MaxEnqueuingMutation:   cfg.CommitLog.MaxEnqueuing,
		BufferBytes:            cfg.CommitLog.BufferBytes,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("data_dir", cfg.DataDir).Msg("starting server")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
