package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/config"
	"github.com/CoReason-AI/coreason-aegis/internal/engine"
	"github.com/CoReason-AI/coreason-aegis/internal/httpapi"
	"github.com/CoReason-AI/coreason-aegis/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	logger, err := telemetry.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	eng, err := engine.New(cfg, logger, nil)
	if err != nil {
		logger.Fatal("engine init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           httpapi.NewRouter(eng),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("aegis-gateway listening", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := eng.Close(shutdownCtx); err != nil {
		logger.Error("engine close failed", zap.Error(err))
	}
}
