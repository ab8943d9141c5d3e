package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/api"
	"github.com/oncokb/oncokb-transcript-sub003/internal/config"
	"github.com/oncokb/oncokb-transcript-sub003/internal/database"
	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/setup"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, logCloser, err := setup.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// "server migrate <command>" and help run before Build, since Build
	// applies pending migrations.
	if len(os.Args) > 1 && os.Args[1] != "drugs" {
		os.Exit(runMigrateCLI(ctx, cfg.Database, logger))
	}

	components, err := setup.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize components")
	}
	defer components.Close()

	// "server drugs <command>" runs registry maintenance and exits
	if len(os.Args) > 1 {
		if err := setup.NewCLI(os.Stdout, setup.WithDrugStore(components.Drugs)).Run(ctx, os.Args[1:]); err != nil {
			logger.WithError(err).Error("Drug registry command failed")
			components.Close()
			os.Exit(1)
		}
		return
	}

	server := api.NewServer(configManager, api.Dependencies{
		Service:      components.Service,
		Drugs:        components.Drugs,
		DrugCache:    components.DrugCache,
		HealthChecks: components.HealthChecks,
		Logger:       logger,
	})

	logger.WithFields(logrus.Fields{
		"host":       cfg.Server.Host,
		"port":       cfg.Server.Port,
		"production": configManager.IsProduction(),
	}).Info("Starting OncoKB evidence resolver")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		components.Close()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

func runMigrateCLI(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) int {
	var opts []setup.CLIOption
	if cfg.Host != "" {
		mg, err := database.NewMigrator(cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to open migrations")
			return 1
		}
		defer mg.Close()
		opts = append(opts, setup.WithMigrator(mg))
	}

	if err := setup.NewCLI(os.Stdout, opts...).Run(ctx, os.Args[1:]); err != nil {
		logger.WithError(err).Error("Command failed")
		return 1
	}
	return 0
}
