package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/barter-engine/internal/config"
	"github.com/jwebster45206/barter-engine/internal/handlers"
	"github.com/jwebster45206/barter-engine/internal/ledger"
	"github.com/jwebster45206/barter-engine/internal/logger"
	"github.com/jwebster45206/barter-engine/internal/middleware"
	"github.com/jwebster45206/barter-engine/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Barter Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx, 10, 3*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// The archiver worker writes the ledger; the API only reads it.
	tradeLedger, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Error("Failed to open ledger", "error", err, "path", cfg.LedgerPath)
		os.Exit(1)
	}
	defer func() {
		if err := tradeLedger.Close(); err != nil {
			log.Error("Failed to close ledger", "error", err)
		}
	}()

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	tradersHandler := handlers.NewTradersHandler(store, log).WithEventLog(tradeLedger)
	mux.Handle("/v1/traders", tradersHandler)
	mux.Handle("/v1/traders/", tradersHandler)

	mux.Handle("/v1/events/traders/", handlers.NewEventsHandler(store.Client(), log))
	mux.Handle("/v1/ws/traders/", handlers.NewFeedHandler(store.Client(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream stays open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
