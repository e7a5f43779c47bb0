package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/barter-engine/internal/barter"
	"github.com/jwebster45206/barter-engine/internal/config"
	"github.com/jwebster45206/barter-engine/internal/events"
	"github.com/jwebster45206/barter-engine/internal/logger"
	"github.com/jwebster45206/barter-engine/internal/storage"
	"github.com/jwebster45206/barter-engine/pkg/negotiation"
)

type ConsoleConfig struct {
	PlayerID string
	TraderID string // empty shows the trader picker
	Cost     int    // cents owed for a service
	Deal     negotiation.Deal
}

func main() {
	traderID := flag.String("trader", "", "trader to open directly")
	cost := flag.Int("cost", 0, "service cost in cents, paid from debt or by trading")
	reward := flag.Bool("reward", false, "accept a reward instead of trading")
	flag.Parse()

	cfg := config.Load()

	// The UI owns the terminal, so logs go to LOG_FILE or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = f.Close() // Ignore error in defer
		}()
		logOut = f
	}
	log := logger.SetupWithWriter(cfg, logOut)

	econ, err := config.LoadEconomy(cfg.EconomyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load economy: %v\n", err)
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	ctx := context.Background()
	if err := store.WaitForConnection(ctx, 5, time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s. Please ensure it is running.\nTry: docker-compose up -d redis\n", cfg.RedisURL)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster(store.Client(), log)
	svc := barter.NewService(store, broadcaster, econ, log)

	consoleCfg := &ConsoleConfig{
		PlayerID: cfg.PlayerID,
		TraderID: *traderID,
		Cost:     *cost,
		Deal:     negotiation.DealTrade,
	}
	switch {
	case *reward:
		consoleCfg.Deal = negotiation.DealReward
	case *cost > 0:
		consoleCfg.Deal = negotiation.DealPay
	}

	p := tea.NewProgram(NewConsoleUI(ctx, consoleCfg, svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
