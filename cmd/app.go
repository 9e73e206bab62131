package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tapdeck/groupgen/internal/config"
	"github.com/tapdeck/groupgen/internal/grouping"
	"github.com/tapdeck/groupgen/internal/store"
	"github.com/tapdeck/groupgen/internal/venue"
	"github.com/tapdeck/groupgen/pkg/places"
)

// appEnv bundles the wired subsystems a command needs.
type appEnv struct {
	cfg   *config.Config
	store store.Store
	orch  *grouping.Orchestrator
}

// initApp validates config for the mode and wires the store and the
// generation pipeline.
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	zap.L().Info("app initialized",
		zap.String("mode", mode),
		zap.String("store", cfg.Store.Driver),
	)
	return &appEnv{cfg: cfg, store: st, orch: orch}, nil
}

func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildOrchestrator wires the venue lookup pipeline behind the generation
// orchestrator.
func buildOrchestrator(cfg *config.Config) (*grouping.Orchestrator, error) {
	scoring := venue.DefaultScoringConfig()
	if cfg.Scoring.TablesPath != "" {
		loaded, err := venue.LoadScoringConfig(cfg.Scoring.TablesPath)
		if err != nil {
			return nil, err
		}
		scoring = loaded
	}

	var opts []places.Option
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	client := places.NewClient(cfg.Places.Key, opts...)

	cache := venue.NewCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	scorer := venue.NewScorer(scoring)
	radius := venue.NewRadiusSelector(venue.DefaultRadiusConfig())

	detector := grouping.NewEventDetector(client, cache, scorer, radius, grouping.DetectorConfig{
		BatchSize:       cfg.Detector.BatchSize,
		MaxConcurrent:   cfg.Detector.MaxConcurrent,
		RequestInterval: time.Duration(cfg.Detector.RequestIntervalMS) * time.Millisecond,
		InterBatchDelay: time.Duration(cfg.Detector.InterBatchDelayMS) * time.Millisecond,
		VenueTypes:      cfg.Detector.VenueTypes,
		MaxResults:      cfg.Detector.MaxResults,
		SearchProfile:   cfg.Detector.SearchProfile,
		TextFallbackMin: cfg.Detector.TextFallbackMin,
	})

	return grouping.NewOrchestrator(detector, cache, radius), nil
}
