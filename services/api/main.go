package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thermolog/thermolog/internal/logging"
	"github.com/thermolog/thermolog/services/api/archive"
	"github.com/thermolog/thermolog/services/api/config"
	"github.com/thermolog/thermolog/services/api/db"
	httpserver "github.com/thermolog/thermolog/services/api/http"
	"github.com/thermolog/thermolog/services/api/influx"
	"github.com/thermolog/thermolog/services/api/templog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New("api", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	err = run(cfg, logger)
	os.Exit(exitCode(logger, err))
}

// exitCode logs a run failure and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("api failed", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := templog.New(cfg.Ring, templog.WithLogger(logger.Named("templog")))
	if err != nil {
		return err
	}
	opts := store.Options()

	srv := httpserver.New(cfg, store, logger.Named("http"))

	var sinks []archive.Sink
	if cfg.DatabaseURL != "" {
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Ping(ctx); err != nil {
			return fmt.Errorf("postgres unreachable: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, pg)
		srv.SetArchive(pg)
		logger.Info("postgres archive enabled")
	}
	if cfg.InfluxURL != "" {
		sink := influx.New(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
		defer sink.Close()
		if ok, err := sink.Ping(ctx); !ok {
			logger.Warn("influxdb not reachable yet", zap.String("url", cfg.InfluxURL), zap.Error(err))
		}
		sinks = append(sinks, sink)
		logger.Info("influxdb mirror enabled", zap.String("bucket", cfg.InfluxBucket))
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.ArchiveEnabled() {
		arch := archive.New(store, cfg.ArchiveInterval, opts.MinInterval, logger.Named("archive"), sinks...)
		g.Go(func() error { return arch.Run(ctx) })
	}
	g.Go(func() error {
		logger.Info("REST API listening", zap.String("addr", cfg.ListenAddr()))
		return srv.Run(ctx)
	})
	return g.Wait()
}
