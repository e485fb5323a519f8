package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"feedbacksense/config"
	"feedbacksense/db"
	qhttp "feedbacksense/http"
	"feedbacksense/inference"
	"feedbacksense/logger"
	"feedbacksense/ml"
	"feedbacksense/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	// 2. Optional artifact load history
	if cfg.Database.Path != "" {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			logg.Warn("artifact load history disabled", zap.String("path", cfg.Database.Path), zap.Error(err))
		} else {
			defer db.Close()
			logg.Info("database initialized", zap.String("path", cfg.Database.Path))
		}
	}

	// 3. Load artifacts once; a failure leaves the service degraded, not down
	metrics := monitoring.NewMetrics()
	loader := ml.NewArtifactLoader(cfg.Artifacts.Dir, cfg.Artifacts.Preprocessor, cfg.Artifacts.Classifier)
	svc := inference.FromLoader(loader,
		inference.WithLogger(logg),
		inference.WithMetrics(metrics),
		inference.WithCache(cfg.Cache.Size),
	)
	if db.Enabled() {
		if err := db.RecordArtifactLoad(loader.Report()); err != nil {
			logg.Warn("failed to record artifact load", zap.Error(err))
		}
	}

	// 4. Start HTTP server
	serverConfig := qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}
	api := qhttp.NewAPI(svc, metrics, logg, serverConfig)
	server := qhttp.NewServer(api, serverConfig, logg)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down")

	if err := server.Stop(); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	logg.Info("exiting")
}
