package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/hoopsdb/internal/config"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
	"github.com/JonMunkholm/hoopsdb/internal/store"
	"github.com/JonMunkholm/hoopsdb/internal/web"
)

func main() {
	loaded, err := config.LoadEnvFiles()
	if err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	if len(loaded) == 0 {
		slog.Info("no .env file found, using environment variables")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Server.StorePath == "" {
		slog.Error("SERVER_STORE_PATH is required")
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dialect", cfg.Store.Dialect,
		"rate_limit", cfg.Server.RateLimit,
	)

	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{
		Location:           cfg.Server.StorePath,
		Dialect:            cfg.Dialect(),
		Suffix:             cfg.Store.Suffix,
		DisableForeignKeys: !cfg.Store.ForeignKeys,
		ReadOnly:           true,
	}, schema.NBA())
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if counts, err := st.Counts(ctx); err == nil {
		slog.Info("store opened", "store", st.String(), "tables", len(counts))
	}

	server := web.NewServer(st, cfg.Server)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
