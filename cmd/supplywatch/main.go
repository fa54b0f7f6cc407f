package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/api"
	"supplywatch/internal/cache"
	"supplywatch/internal/config"
	"supplywatch/internal/engine"
	"supplywatch/internal/ingest"
	"supplywatch/internal/logging"
	"supplywatch/internal/metrics"
	"supplywatch/internal/notify"
	"supplywatch/internal/pipeline"
	"supplywatch/internal/storage"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to YAML or JSON config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "supplywatch:", err.Error())
		os.Exit(1)
	}
}

func run(configPath string) error {
	var manager *config.Manager
	if configPath == "" {
		manager = config.NewStaticManager(config.DefaultConfig())
	} else {
		m, err := config.NewManager(config.ResolvePath(configPath))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		manager = m
	}
	cfg := manager.Get()
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Unreachable collaborators at startup are fatal; the process does not
	// limp along without its store or source.
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if store != nil {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := store.Init(initCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("init storage schema: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	cacheStore, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if cacheStore != nil {
		defer func() { _ = cacheStore.Close() }()
	}

	var notifier notify.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.NewWebhookNotifier(cfg.Notify)
	} else {
		logger.Warn("notifications disabled: no webhook configuration")
	}

	alertsStore := alerts.NewStore(cfg.Alerts.StoreLimit)
	agg := metrics.NewAggregator()
	eng := engine.NewEngine(cfg, logger, alertsStore)
	dispatcher := notify.NewDispatcher(notifier, cfg.Notify.DashboardURL, logger)
	source := ingest.NewKafkaSource(cfg.Ingest, logger)
	processor := pipeline.NewProcessor(manager, source, eng, dispatcher, store, cacheStore, agg, alertsStore, logger)

	api.Start(ctx, manager, agg, cacheStore, alertsStore, logger, version)

	if manager.Path() != "" {
		go manager.Watch(3*time.Second,
			func(updated *config.Config) {
				eng.UpdateConfig(updated)
				logger.Info("config reloaded", "path", manager.Path())
			},
			func(err error) {
				logger.Warn("config reload failed", "err", err)
			},
			ctx.Done(),
		)
	}

	err = processor.Run(ctx)
	if pipeline.IsShutdown(err) {
		logger.Info("shutdown complete")
		return nil
	}
	return err
}
