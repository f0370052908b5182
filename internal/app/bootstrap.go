package app

import (
	"context"
	"fmt"
	"time"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/ranking"
	"skyscraper-platform/internal/repository"
	"skyscraper-platform/pkg/database"
	"skyscraper-platform/pkg/logging"
	"skyscraper-platform/pkg/metrics"
)

// Version is reported by every command in logs
const Version = "1.0.0"

const poolMonitorInterval = 30 * time.Second

// Runtime holds what every command needs after startup
type Runtime struct {
	Config   *config.Config
	Logger   *logging.StructuredLogger
	Metrics  *metrics.Collector
	Settings *config.RankingSettings
	Table    ranking.TierTable
	Store    repository.DocumentStore

	db *database.PostgresDB
}

// Bootstrap loads and validates configuration, then builds the logger, the
// ranking settings and the document store of the configured backend
func Bootstrap(ctx context.Context, service, metricsNamespace string) (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return BootstrapWith(ctx, cfg, service, metricsNamespace)
}

// BootstrapWith is Bootstrap for an already loaded configuration
func BootstrapWith(ctx context.Context, cfg *config.Config, service, metricsNamespace string) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Service:       service,
		Version:       Version,
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FilePath:      cfg.Logging.FilePath,
		RotationSize:  cfg.Logging.RotationSize,
		RetentionDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	settings, err := config.LoadRankingSettings(cfg.RankingSettingsPath)
	if err != nil {
		return nil, err
	}
	table, err := ranking.NewTierTable(settings.RatingsMatrix)
	if err != nil {
		return nil, fmt.Errorf("invalid ratings matrix: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics.NewCollector(metricsNamespace),
		Settings: settings,
		Table:    table,
	}

	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(ctx, &database.Config{
			DSN:             cfg.Database.DSN(),
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			MonitorInterval: poolMonitorInterval,
		}, logger, rt.Metrics)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.Store = repository.NewPostgresStore(db, logger)
	default:
		rt.Store = repository.NewFileStore(cfg.Storage.CitiesPath)
	}

	logger.Info(ctx, "[STARTUP] Runtime initialized", logging.Fields{
		"version":        Version,
		"storage":        rt.Store.Backend(),
		"ranking_config": cfg.RankingSettingsPath,
		"regions":        len(settings.Regions),
	})
	return rt, nil
}

// Repository builds the city repository over the configured store
func (rt *Runtime) Repository() repository.CityRepository {
	return repository.NewCityRepository(
		rt.Store,
		rt.Settings,
		rt.Table,
		rt.Config.Storage.LoadConcurrency,
		rt.Logger,
		rt.Metrics,
	)
}

// Close releases the database connection when one was opened
func (rt *Runtime) Close() error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}
