package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cerebrocare/config"
	"cerebrocare/db"
	chttp "cerebrocare/http"
	"cerebrocare/logging"
	"cerebrocare/ml"
	"cerebrocare/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 3. Initialize assessment history (optional)
	if cfg.Database.Path != "" {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			logger.Fatal("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		defer db.Close()
		logger.Info("assessment history enabled", zap.String("path", cfg.Database.Path))
	}

	// 4. Load model; a missing artifact leaves the service up with predictions disabled
	registry := ml.NewModelRegistry(cfg.Model.Type, cfg.Model.Path, cfg.Model.Columns, logger)
	loadErr := registry.Load()
	if loadErr != nil {
		logger.Error("model not loaded, predictions disabled", zap.String("path", cfg.Model.Path), zap.Error(loadErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Live feed, metrics and alerts
	metrics := monitoring.NewMetricsCollector()
	hub := monitoring.NewAssessmentHub(cfg.Http.AllowedOrigins, logger)
	go hub.Start()
	defer hub.Stop()

	alerts := monitoring.NewAlertSystem(logger)
	defer alerts.Wait()
	if cfg.Alerts.WebhookURL != "" {
		level, err := monitoring.ParseAlertLevel(cfg.Alerts.MinLevel)
		if err != nil {
			logger.Fatal("invalid alert level", zap.Error(err))
		}
		if err := alerts.AddChannel(monitoring.AlertChannel{
			Name:     "webhook",
			URL:      cfg.Alerts.WebhookURL,
			MinLevel: level,
			Cooldown: cfg.Alerts.Cooldown,
		}); err != nil {
			logger.Fatal("invalid alert channel", zap.Error(err))
		}
	}

	sessions, err := chttp.NewSessionStore(cfg.Session.Capacity, cfg.Session.CookieName, cfg.UI.DefaultTheme)
	if err != nil {
		logger.Fatal("failed to create session store", zap.Error(err))
	}

	app := &chttp.App{
		Registry: registry,
		Metrics:  metrics,
		Hub:      hub,
		Alerts:   alerts,
		Sessions: sessions,
		Logger:   logger,
		Title:    cfg.UI.Title,
	}
	app.ReportModelLoad(loadErr)

	if cfg.Model.Watch {
		registry.OnReload = app.OnModelReload
		go func() {
			if err := registry.Watch(ctx); err != nil {
				logger.Error("model watcher stopped", zap.Error(err))
			}
		}()
	}

	// 6. Start HTTP server
	server := chttp.NewServer(chttp.ServerConfigFrom(cfg.Http), app)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// 7. Handle graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(context.Background()); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
