// Package setup wires the evidence resolver components from configuration.
// Both the HTTP server and the MCP server build their dependencies here.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/cache"
	"github.com/oncokb/oncokb-transcript-sub003/internal/database"
	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/drugs"
	"github.com/oncokb/oncokb-transcript-sub003/internal/repository"
	"github.com/oncokb/oncokb-transcript-sub003/internal/service"
	"github.com/oncokb/oncokb-transcript-sub003/pkg/external"
)

// Components holds every wired dependency. DB, Fingerprints and Submitter
// are nil when their configuration section is empty.
type Components struct {
	Logger       *logrus.Logger
	Drugs        drugs.Store
	DrugCache    *cache.DrugLookupCache
	DB           *database.DB
	Fingerprints *external.FingerprintCache
	Submitter    *external.ResilientEvidenceClient
	Service      *service.SubmissionService
	HealthChecks map[external.ExternalServiceType]external.Pinger

	closers []func() error
}

// NewLogger builds the process logger from the logging section.
// Output is "stdout", "stderr" or a file path.
func NewLogger(cfg domain.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		return logger, f, nil
	}
	return logger, nil, nil
}

// Build connects every configured component. On error the components
// created so far are closed.
func Build(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (_ *Components, err error) {
	c := &Components{
		Logger:       logger,
		HealthChecks: make(map[external.ExternalServiceType]external.Pinger),
	}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	var repo domain.SubmissionRepository
	if cfg.Database.Host != "" {
		if err := database.RunMigrations(ctx, cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		c.DB = db
		c.closers = append(c.closers, func() error { db.Close(); return nil })
		c.HealthChecks[external.ServiceDatabase] = db
		repo = repository.NewSubmissionRepository(db.Pool, logger)
	} else {
		logger.Warn("No database configured, submission history is disabled")
	}

	store, err := openDrugStore(cfg)
	if err != nil {
		return nil, err
	}
	c.Drugs = store
	c.closers = append(c.closers, store.Close)

	if cfg.Drugs.SeedFile != "" {
		if err := SeedDrugs(ctx, store, cfg.Drugs.SeedFile, logger); err != nil {
			return nil, err
		}
	}
	c.DrugCache = cache.NewDrugLookupCache(store, cfg.Drugs.CacheSize, cfg.Drugs.CacheTTL, logger)

	var fingerprints domain.FingerprintCache
	if cfg.Cache.RedisURL != "" {
		fc, err := external.NewFingerprintCache(cfg.Cache)
		if err != nil {
			return nil, err
		}
		c.Fingerprints = fc
		c.closers = append(c.closers, fc.Close)
		c.HealthChecks[external.ServiceRedis] = fc
		fingerprints = fc
	} else {
		logger.Warn("No Redis configured, duplicate submissions are not detected")
	}

	var submitter domain.EvidenceSubmitter
	if cfg.Submission.BaseURL != "" {
		client := external.NewEvidenceClient(cfg.Submission)
		c.Submitter = external.NewResilientEvidenceClient(client, external.DefaultCircuitBreakerConfig(), logger)
		c.HealthChecks[external.ServiceIngestion] = c.Submitter
		submitter = c.Submitter
	} else {
		logger.Warn("No ingestion API configured, evidence submission is disabled")
	}

	c.Service = service.NewSubmissionService(logger, c.DrugCache, repo, submitter, fingerprints)

	logger.WithFields(logrus.Fields{
		"drug_store":   cfg.Drugs.Store,
		"history":      repo != nil,
		"dedupe":       fingerprints != nil,
		"submission":   submitter != nil,
		"health_check": len(c.HealthChecks),
	}).Info("Components initialized")

	return c, nil
}

func openDrugStore(cfg *domain.Config) (drugs.Store, error) {
	switch cfg.Drugs.Store {
	case "postgres":
		if cfg.Database.Host == "" {
			return nil, fmt.Errorf("postgres drug store requires a database host")
		}
		return drugs.NewPostgresStoreFromURL(cfg.Database.URL())
	case "", "sqlite":
		if dir := filepath.Dir(cfg.Drugs.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create drug store directory: %w", err)
			}
		}
		return drugs.NewSQLiteStore(cfg.Drugs.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown drug store %q", cfg.Drugs.Store)
	}
}

// SeedDrugs imports the seed file into an empty store.
func SeedDrugs(ctx context.Context, store drugs.Store, path string, logger *logrus.Logger) error {
	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count drugs: %w", err)
	}
	if count > 0 {
		logger.WithField("drug_count", count).Debug("Drug store already populated, skipping seed")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open drug seed file: %w", err)
	}
	defer f.Close()

	imported, skipped, err := store.ImportJSON(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to import drug seed file: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"seed_file": path,
		"imported":  imported,
		"skipped":   skipped,
	}).Info("Seeded drug registry")
	return nil
}

// Close releases components in reverse creation order.
func (c *Components) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
