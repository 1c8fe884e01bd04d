// cmd/cliphavend/main.go
// Package main implements the entry point for the cliphaven service.
// It wires the collection store, consistency engine, notification bus, and
// HTTP server, and handles graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cliphaven/cliphaven-go/internal/auth"
	"github.com/cliphaven/cliphaven-go/internal/bus"
	"github.com/cliphaven/cliphaven-go/internal/cascade"
	"github.com/cliphaven/cliphaven-go/internal/config"
	"github.com/cliphaven/cliphaven-go/internal/event"
	"github.com/cliphaven/cliphaven-go/internal/gen"
	"github.com/cliphaven/cliphaven-go/internal/guard"
	"github.com/cliphaven/cliphaven-go/internal/kv"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/server"
	"github.com/cliphaven/cliphaven-go/internal/session"
	"github.com/cliphaven/cliphaven-go/internal/store"
	"github.com/cliphaven/cliphaven-go/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	_, err = telemetry.InitTracer("cliphaven", cfg.Env)
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	// Select the slot store backend
	var backend kv.Store
	switch cfg.StoreBackend {
	case "postgres":
		backend, err = kv.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres backend", "error", err)
			os.Exit(1)
		}
	case "redis":
		backend, err = kv.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to initialize redis backend", "error", err)
			os.Exit(1)
		}
	case "file":
		backend, err = kv.NewFile(cfg.StorePath)
		if err != nil {
			logger.Error("failed to initialize file backend", "error", err)
			os.Exit(1)
		}
	default:
		backend = kv.NewMemory()
	}

	s := store.New(backend, logger)
	b := bus.New(logger)

	// Mirror local change notifications onto NATS (no-op when unconfigured)
	pub := event.NewPublisherFromEnv()
	defer pub.Close()
	detach := event.Mirror(b, pub, logger)
	defer detach()

	l := ledger.New(s, logger)
	g := guard.New(s, logger)
	engine := cascade.New(s, b, l, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL)
	sessions := session.New(s, g, l, tokens, logger)

	// Generative content service client (no-op when unconfigured)
	var genSvc gen.Service
	if cfg.GenURL != "" {
		genSvc = gen.New(cfg.GenURL)
	}

	mux := server.NewMux(s, b, sessions, engine, g, l, tokens, genSvc, nil, cfg.CORSAllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	// Close backends that hold connections
	if closer, ok := backend.(interface{ Close() }); ok {
		closer.Close()
	}

	logger.Info("server exited")
}
