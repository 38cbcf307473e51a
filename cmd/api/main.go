package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/config"
	"monocart/internal/logger"
	"monocart/internal/normalize"
	"monocart/internal/server"
	"monocart/internal/session"
	"monocart/internal/storage"
	"monocart/internal/store"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting storefront gateway",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("api", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	sessionStorage, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open session storage", zap.Error(err))
	}

	api, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to create API client", zap.Error(err))
	}

	norm, err := normalize.New(cfg.API.ImageURL)
	if err != nil {
		log.Fatal("Failed to create normalizer", zap.Error(err))
	}

	sess := session.New(api, sessionStorage, log)
	if err := sess.Initialize(ctx); err != nil {
		log.Fatal("Failed to restore session", zap.Error(err))
	}
	log.Info("Session restored",
		zap.Bool("logged_in", sess.IsLoggedIn()),
		zap.String("landing", sess.LandingRoute()),
	)

	st := store.New(store.Deps{
		API:            api,
		Normalizer:     norm,
		Logger:         log,
		OnUnauthorized: sess.OnUnauthorized,
	}, cfg.Staleness, sess)

	srv := server.NewServer(cfg, log, sess, st, sessionStorage)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
