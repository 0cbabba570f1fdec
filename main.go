package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/anatomy/config"
	"github.com/pthm-cable/anatomy/console"
	"github.com/pthm-cable/anatomy/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	creatures := flag.Int("creatures", -1, "Initial creatures (-1 = use config)")
	interactive := flag.Bool("console", false, "Read admin commands from stdin instead of running freely")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Simulation.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	s, err := sim.New(cfg, sim.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Creatures:      *creatures,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interactive {
		if err := console.New(s, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			slog.Error("console stopped", "error", err)
		}
		return
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"creatures", len(s.CreatureIDs()),
		"max_ticks", *maxTicks,
	)

	for ctx.Err() == nil {
		s.Step()

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", s.Tick())
}
