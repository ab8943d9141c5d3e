package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

const defaultMigrationsPath = "migrations"

// MigrationVersion is the schema state of the submissions database.
type MigrationVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	// Applied is false on a database no migration has touched.
	Applied bool `json:"applied"`
}

// Migrator applies the submission schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger *logrus.Logger
}

// NewMigrator opens the migration source named by cfg.MigrationsPath (a
// directory or a source URL) against the configured database.
func NewMigrator(cfg domain.DatabaseConfig, logger *logrus.Logger) (*Migrator, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("database is not configured")
	}
	source := cfg.MigrationsPath
	if source == "" {
		source = defaultMigrationsPath
	}
	if !strings.Contains(source, "://") {
		source = "file://" + source
	}

	m, err := migrate.New(source, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations %s: %w", source, err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up(ctx context.Context) error {
	err := mg.run(ctx, mg.m.Up)
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Debug("Schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	mg.logVersion("Migrations applied")
	return nil
}

// Down rolls back steps migrations.
func (mg *Migrator) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	err := mg.run(ctx, func() error { return mg.m.Steps(-steps) })
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back %d migrations: %w", steps, err)
	}
	mg.logVersion("Migrations rolled back")
	return nil
}

// Version reports the current schema version.
func (mg *Migrator) Version() (MigrationVersion, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationVersion{}, nil
	}
	if err != nil {
		return MigrationVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return MigrationVersion{Version: v, Dirty: dirty, Applied: true}, nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	return errors.Join(sourceErr, dbErr)
}

// run stops the migration between steps once ctx is done.
func (mg *Migrator) run(ctx context.Context, step func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case mg.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()

	if err := step(); err != nil {
		return err
	}
	return ctx.Err()
}

func (mg *Migrator) logVersion(msg string) {
	v, err := mg.Version()
	if err != nil {
		mg.logger.WithError(err).Warn("Could not read schema version")
		return
	}
	mg.logger.WithFields(logrus.Fields{
		"version": v.Version,
		"dirty":   v.Dirty,
	}).Info(msg)
}

// RunMigrations applies pending migrations and closes the migrator.
func RunMigrations(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) error {
	mg, err := NewMigrator(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migrator")
		}
	}()
	return mg.Up(ctx)
}
