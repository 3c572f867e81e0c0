package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ziadkadry99/casebrief/internal/audit"
	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/config"
	"github.com/ziadkadry99/casebrief/internal/db"
	"github.com/ziadkadry99/casebrief/internal/experts"
	"github.com/ziadkadry99/casebrief/internal/intake"
	"github.com/ziadkadry99/casebrief/internal/llm"
	"github.com/ziadkadry99/casebrief/internal/logger"
	"github.com/ziadkadry99/casebrief/internal/oracle"
	"github.com/ziadkadry99/casebrief/internal/telemetry"
)

// app holds everything a command needs to run intake sessions.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	database *db.DB
	audit    *audit.Store
	intake   *intake.Service
	closers  []func(context.Context) error
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `casebrief init` to create a config file", err)
	}
	if verbose {
		cfg.LogMode = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates a rate limited LLM provider, or nil
// when the provider is "none".
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	if cfg.Provider == config.ProviderNone {
		return nil, nil
	}
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.RequestsPerMinute), nil
}

// newApp wires config, logging, tracing, storage and the intake service.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "casebrief",
		ServiceVersion: Version,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	a.database, err = db.Open(cfg.DBPath())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return a.database.Close() })

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	var orc collector.Oracle
	if provider != nil {
		orc = oracle.New(provider, cfg.Model, cfg.Slots, log)
	} else {
		log.Info("no provider configured, using local thresholds and canned questions")
	}

	var cache intake.Cache
	if cfg.RedisURL != "" {
		rc, err := intake.NewRedisCache(cfg.RedisURL, cfg.SessionTTL())
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		cache = rc
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
	}

	a.audit = audit.NewStore(a.database)
	a.intake, err = intake.NewService(intake.NewStore(a.database), intake.Options{
		Slots:       cfg.Slots,
		Policy:      cfg.Policy(),
		Oracle:      orc,
		Cache:       cache,
		Audit:       a.audit,
		Selector:    experts.NewSelector(provider, cfg.Model, log),
		ExpertStore: experts.NewStore(a.database),
		Logger:      log,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: shutdown: %v\n", err)
	}
	a.log.Sync()
}
