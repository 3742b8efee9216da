// Command estatesim runs the real-estate simulation and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/estate-world/internal/api"
	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/engine"
	"github.com/talgya/estate-world/internal/entropy"
	"github.com/talgya/estate-world/internal/notify"
	"github.com/talgya/estate-world/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("estatesim failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg config.Config) error {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate ──────────────────────────────────────────────
	sim, err := loadOrCreate(cfg, catalog, db)
	if err != nil {
		return err
	}
	status := sim.Status()
	slog.Info("game ready",
		"date", status.Date,
		"cash", status.Portfolio.Cash.String(),
		"properties", status.Portfolio.Properties,
		"listings", status.Listings,
		"lots", status.Lots,
	)

	// Month-end autosave. The hook runs under the simulation lock, so it
	// only signals the saver goroutine.
	saveRequests := make(chan struct{}, 1)
	sim.OnMonth(func(engine.MonthlyReport) {
		select {
		case saveRequests <- struct{}{}:
		default:
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &api.Server{
		Sim:         sim,
		DB:          db,
		Port:        cfg.APIPort,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.NewEngine(sim, cfg.FrameInterval).Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-saveRequests:
				if err := db.SaveWorldState(sim.State()); err != nil {
					slog.Error("autosave failed", "error", err)
					continue
				}
				slog.Info("autosave complete", "date", sim.Status().Date)
			}
		}
	})

	runErr := g.Wait()

	slog.Info("shutting down, saving state...")
	if err := db.SaveWorldState(sim.State()); err != nil {
		return errors.Join(runErr, err)
	}
	slog.Info("shutdown complete")
	return runErr
}

func loadCatalog(path string) (config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog()
	}
	slog.Info("loading catalog", "path", path)
	return config.LoadCatalog(path)
}

func loadOrCreate(cfg config.Config, catalog config.Catalog, db *persistence.DB) (*engine.Simulation, error) {
	saved, err := db.HasSave()
	if err != nil {
		return nil, err
	}
	if saved {
		slog.Info("found saved game, loading...")
		state, err := db.LoadWorldState()
		if err != nil {
			return nil, err
		}
		return engine.Restore(state, catalog, notify.DefaultFeedSize), nil
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = entropy.NewSeed(); err != nil {
			return nil, err
		}
	}
	slog.Info("no saved game found, generating new city...", "seed", seed)
	return engine.NewSimulation(engine.Setup{
		Seed:         seed,
		Catalog:      catalog,
		Start:        cfg.StartDate,
		Speed:        cfg.Speed,
		StartingCash: cfg.StartingCash,
		Listings:     cfg.Listings,
		Lots:         cfg.Lots,
		FeedSize:     notify.DefaultFeedSize,
	})
}
