package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ccdb/internal/config"
	"github.com/kailas-cloud/ccdb/internal/repository/ratelimit"
	chiTransport "github.com/kailas-cloud/ccdb/internal/transport/chi"
	healthuc "github.com/kailas-cloud/ccdb/internal/usecase/health"
	throttleuc "github.com/kailas-cloud/ccdb/internal/usecase/throttle"
	"github.com/kailas-cloud/ccdb/internal/version"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override http.port",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := bootstrap(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			if port := c.Int("port"); port > 0 {
				a.cfg.HTTP.Port = port
			}
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting ccdb API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index", cfg.Engine.Index),
	)

	if cfg.Engine.CreateIndex {
		if err := a.ensureIndex(ctx, false); err != nil {
			return err
		}
	}

	throttle, err := buildThrottle(a)
	if err != nil {
		return err
	}

	server := chiTransport.NewServer(
		a.searchService(),
		a.exporter(),
		healthuc.New(a.store, a.store, cfg.Engine.Index),
		throttle,
		logger,
		chiTransport.Options{
			CORS:        cfg.HTTP.CORS,
			Compression: cfg.HTTP.Compression,
			TrustProxy:  cfg.HTTP.TrustProxy,
			DefaultSize: cfg.Search.DefaultSize,
		},
	)
	handler, err := server.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildThrottle returns nil when quotas are disabled.
func buildThrottle(a *app) (*chiTransport.Throttle, error) {
	tc := a.cfg.Throttle
	if !tc.Enabled {
		a.logger.Warn("Request throttling disabled")
		return nil, nil
	}

	policy, err := a.cfg.ThrottlePolicy()
	if err != nil {
		return nil, fmt.Errorf("throttle policy: %w", err)
	}

	var counter throttleuc.Counter
	switch tc.Store {
	case config.ThrottleStoreRedis:
		counter = ratelimit.NewRedis(a.store, tc.KeyPrefix)
	default:
		counter = ratelimit.NewMemory()
	}

	a.logger.Info("Request throttling enabled",
		zap.String("store", tc.Store),
		zap.Bool("ui_origin_configured", tc.UIURL != ""),
	)
	return chiTransport.NewThrottle(throttleuc.NewClassifier(tc.UIURL), throttleuc.NewEnforcer(policy, counter)), nil
}
