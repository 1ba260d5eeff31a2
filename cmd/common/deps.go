// Package common provides shared dependency wiring for command
// implementations.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pricewatch/internal/agent"
	"github.com/jonesrussell/pricewatch/internal/config"
	"github.com/jonesrussell/pricewatch/internal/coordinator"
	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/fetcher"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/matching"
	"github.com/jonesrussell/pricewatch/internal/monitoring"
	"github.com/jonesrussell/pricewatch/internal/pipeline"
	"github.com/jonesrussell/pricewatch/internal/reconcile"
)

// Deps holds the wired dependency graph shared by all commands.
type Deps struct {
	Config      *config.Config
	Logger      logger.Interface
	DB          *sqlx.DB
	Monitor     *monitoring.Service
	Coordinator *coordinator.Coordinator
	Products    *database.ProductRepository
}

// Build loads configuration and wires the full dependency graph. Close
// must be called when the command finishes.
func Build() (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if viper.GetBool("app.debug") {
		cfg.Logger.Level = "debug"
	}

	log, err := logger.New(&logger.Config{
		Level:       logger.Level(cfg.Logger.Level),
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.Logger.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	products := database.NewProductRepository(db)
	matches := database.NewMatchRepository(db)
	prices := database.NewPriceRepository(db)
	operations := database.NewOperationRepository(db)
	metrics := database.NewMetricRepository(db)

	monitor := monitoring.New(metrics, monitoring.Config{
		FlushInterval: cfg.Monitoring.FlushInterval,
		BufferLimit:   cfg.Monitoring.BufferLimit,
		Alerts:        cfg.Monitoring.Alerts,
	}, log)
	monitor.Start()

	proc := pipeline.New(log, monitor)
	engine := matching.New(matches, products, matching.Config{
		ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
		ReviewThreshold:     cfg.Matching.ReviewThreshold,
		CandidateLimit:      cfg.Matching.CandidateLimit,
	}, log)
	reconciler := reconcile.New(prices, log)

	coord := coordinator.New(proc, engine, reconciler, operations, monitor, log)

	fetcherCfg := fetcher.Config{
		RequestsPerMinute: cfg.Fetcher.RequestsPerMinute,
		MaxRetries:        cfg.Fetcher.MaxRetries,
		MinDelay:          cfg.Fetcher.MinDelay,
		MaxDelay:          cfg.Fetcher.MaxDelay,
		RequestTimeout:    cfg.Fetcher.RequestTimeout,
	}
	for _, store := range cfg.Stores {
		coord.RegisterAgent(agent.NewSiteAgentWithFetcher(store, fetcherCfg, log))
	}

	return &Deps{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Monitor:     monitor,
		Coordinator: coord,
		Products:    products,
	}, nil
}

// Close flushes telemetry and releases the database connection.
func (d *Deps) Close() {
	if d.Monitor != nil {
		d.Monitor.Stop()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("failed to close database", "error", err)
		}
	}
}
