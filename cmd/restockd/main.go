// Command restockd watches for product restock events and forwards at most
// one alert per event to a downstream automation webhook.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hazyhaar/restock/monitor"
)

func main() {
	// Optional .env for local runs; secrets normally come from the real
	// environment.
	_ = godotenv.Load()

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := monitor.LoadFile(cfgPath)
	if err != nil {
		slog.Error("load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := monitor.New(*cfg, monitor.WithLogger(logger))
	if err := m.Start(ctx); err != nil {
		logger.Error("start monitor", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           monitor.Handler(m),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("status api listening", "addr", cfg.API.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status api failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("signal received, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("status api shutdown", "error", err)
	}

	m.Stop()
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
