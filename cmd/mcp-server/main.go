package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oncokb/oncokb-transcript-sub003/internal/config"
	"github.com/oncokb/oncokb-transcript-sub003/internal/mcp"
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

	// stdout carries the MCP stream
	logCfg := cfg.Logging
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	logger, logCloser, err := setup.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, err := setup.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize components")
	}
	defer components.Close()

	mcpServer, err := mcp.NewServer(cfg.MCP, components.Service, components.DrugCache, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create MCP server")
		components.Close()
		os.Exit(1)
	}

	if err := mcpServer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		components.Close()
		os.Exit(1)
	}

	logger.Info("MCP server stopped")
}
