package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/config"
	dbRedis "github.com/kailas-cloud/ccdb/internal/db/redis"
	logpkg "github.com/kailas-cloud/ccdb/internal/logger"
	"github.com/kailas-cloud/ccdb/internal/metrics"
	complaintrepo "github.com/kailas-cloud/ccdb/internal/repository/complaint"
	exportuc "github.com/kailas-cloud/ccdb/internal/usecase/export"
	searchuc "github.com/kailas-cloud/ccdb/internal/usecase/search"
)

// app holds the dependencies shared by every command.
type app struct {
	env      string
	cfg      config.Config
	logger   *zap.Logger
	store    *dbRedis.Store
	repo     *complaintrepo.Repo
	executor *searchuc.InstrumentedExecutor
}

// bootstrap loads configuration, builds the logger and connects to the engine.
func bootstrap(ctx context.Context, c *cli.Command) (*app, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Engine.Addrs,
		Password: cfg.Engine.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Connected to engine", zap.Strings("addrs", cfg.Engine.Addrs))

	metrics.RegisterDomainMetrics()

	repo := complaintrepo.New(store, complaintrepo.Config{
		Index:     cfg.Engine.Index,
		KeyPrefix: cfg.Engine.KeyPrefix,
	})

	return &app{
		env:      env,
		cfg:      cfg,
		logger:   logger,
		store:    store,
		repo:     repo,
		executor: searchuc.NewInstrumentedExecutor(repo),
	}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) searchService() *searchuc.Service {
	return searchuc.New(a.executor, searchuc.Config{
		AggSize:             a.cfg.Search.AggSize,
		ExcludeFilteredAggs: a.cfg.Search.ExcludeFilteredAggs,
		SuggestSize:         a.cfg.Search.SuggestSize,
	})
}

func (a *app) exporter() *exportuc.Exporter {
	return exportuc.New(a.executor, exportuc.Config{ChunkSize: a.cfg.Export.ChunkSize})
}

// ensureIndex creates the complaint index when it is missing.
func (a *app) ensureIndex(ctx context.Context, recreate bool) error {
	created, err := a.repo.EnsureIndex(ctx, recreate)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	a.logger.Info("Complaint index ready",
		zap.String("index", a.cfg.Engine.Index),
		zap.Bool("created", created),
	)
	return nil
}
