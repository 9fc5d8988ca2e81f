package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thermolog/thermolog/internal/logging"
	"github.com/thermolog/thermolog/services/collector/internal/aliases"
	"github.com/thermolog/thermolog/services/collector/internal/apiclient"
	"github.com/thermolog/thermolog/services/collector/internal/config"
	"github.com/thermolog/thermolog/services/collector/internal/dht"
	"github.com/thermolog/thermolog/services/collector/internal/gateway"
	"github.com/thermolog/thermolog/services/collector/internal/models"
	"github.com/thermolog/thermolog/services/collector/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("collector failed: %v", err)
	}
}

type collector struct {
	cfg     config.Config
	log     *zap.Logger
	http    *http.Client
	api     *apiclient.Client
	names   aliases.Table
	local   *dht.Source
	lastMap map[string]models.LastSent
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New("collector", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	names, err := aliases.Load(cfg.AliasesFile)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}
	c := &collector{
		cfg:     cfg,
		log:     logger,
		http:    client,
		api:     apiclient.New(cfg.APIBaseURL, cfg.BearerToken, client),
		names:   names,
		lastMap: make(map[string]models.LastSent),
	}

	if cfg.DHTPin != "" {
		c.local, err = dht.New(cfg.DHTPin, cfg.DHTName)
		if err != nil {
			return err
		}
		logger.Info("local dht22 enabled", zap.String("pin", cfg.DHTPin), zap.String("name", c.local.Name()))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Once {
		return c.poll(ctx)
	}

	logger.Info("collector started",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("interval", cfg.PollInterval),
		zap.Int("aliases", names.Len()),
		zap.Bool("dry_run", cfg.DryRun))

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := c.poll(ctx); err != nil {
			logger.Warn("poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll gathers one round of readings and forwards what changed.
func (c *collector) poll(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, c.cfg.RequestTimeout+10*time.Second)
	defer cancel()

	retrievalTS := time.Now().UTC().Truncate(time.Second)
	var readings []models.Reading

	if c.cfg.GatewayURL != "" {
		payload, err := gateway.FetchDevices(ctx, c.http, c.cfg.GatewayURL)
		if err != nil {
			return err
		}
		c.log.Debug("fetched devices", zap.Int("devices", len(payload.Devices)), zap.String("gateway", payload.Gateway))
		readings = append(readings, utils.BuildReadings(payload.Devices, c.names, retrievalTS, c.cfg.MaxDeviceAge)...)
	}

	if c.local != nil {
		r, err := c.local.Read()
		if err != nil {
			c.log.Warn("dht read failed", zap.Error(err))
		} else {
			readings = append(readings, r)
		}
	}

	pending := utils.FilterChanged(readings, c.lastMap, c.cfg.ResendInterval, c.cfg.ValueEpsilon, retrievalTS)
	if len(pending) == 0 {
		c.log.Debug("no changed readings", zap.Time("retrieval", retrievalTS))
		return nil
	}

	if c.cfg.DryRun {
		for _, r := range pending {
			c.log.Info("dry-run: would post",
				zap.String("sensor", r.Sensor),
				zap.String("temperature", utils.ValuePtrString(&r.Temperature)),
				zap.String("humidity", utils.ValuePtrString(r.Humidity)))
		}
		utils.MarkSent(c.lastMap, pending, retrievalTS)
		return nil
	}

	resp, err := c.api.PostReadings(ctx, pending)
	if err != nil {
		return err
	}
	utils.MarkSent(c.lastMap, pending, retrievalTS)

	for _, res := range resp.Data {
		if res.Error != "" {
			c.log.Warn("reading rejected", zap.String("sensor", res.Sensor), zap.String("error", res.Error))
		}
	}
	c.log.Info("posted readings",
		zap.Int("sent", len(pending)),
		zap.Int("accepted", resp.Meta.Accepted),
		zap.Int("rejected", resp.Meta.Rejected))
	return nil
}
