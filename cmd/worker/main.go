package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/barter-engine/internal/config"
	"github.com/jwebster45206/barter-engine/internal/ledger"
	"github.com/jwebster45206/barter-engine/internal/logger"
	"github.com/jwebster45206/barter-engine/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Barter Engine Archiver",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"ledger", cfg.LedgerPath)

	l, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error("Failed to close ledger", "error", err)
		}
	}()
	log.Info("Ledger opened successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()
	log.Info("Redis connection established successfully")

	a := worker.New(redisClient, l, log, cfg.WorkerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.Start(); err != nil {
			log.Error("Archiver error", "error", err)
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		}
	}()

	log.Info("Archiver started, waiting for trade events...")

	<-quit
	log.Info("Archiver shutdown signal received")

	a.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn("Archiver did not stop in time")
	}

	log.Info("Archiver exited")
}
