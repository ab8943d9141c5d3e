package drugs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lib/pq"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL drug store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL drug store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

const postgresDrugColumns = `uuid, drug_name, ncit_code, synonyms, created_at, updated_at`

func scanPostgresDrug(s scanner) (*domain.Drug, error) {
	d := &domain.Drug{}
	var synonyms []string
	if err := s.Scan(&d.UUID, &d.DrugName, &d.NcitCode, pq.Array(&synonyms), &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if len(synonyms) > 0 {
		d.Synonyms = synonyms
	}
	return d, nil
}

// Save inserts a drug or updates the drug with the same UUID.
func (s *PostgresStore) Save(ctx context.Context, drug *domain.Drug) error {
	if err := validateDrug(drug); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO drugs (uuid, drug_name, ncit_code, synonyms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uuid) DO UPDATE SET
			drug_name = EXCLUDED.drug_name,
			ncit_code = EXCLUDED.ncit_code,
			synonyms = EXCLUDED.synonyms,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	synonyms := drug.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	err := s.db.QueryRowContext(ctx, query,
		drug.UUID,
		drug.DrugName,
		drug.NcitCode,
		pq.Array(synonyms),
		now,
		now,
	).Scan(&drug.CreatedAt, &drug.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}
	return nil
}

// Get returns the drug with the given UUID.
func (s *PostgresStore) Get(ctx context.Context, uuid string) (*domain.Drug, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postgresDrugColumns+" FROM drugs WHERE uuid = $1", uuid)
	return s.scanOne(row)
}

// GetByName returns the drug with the given display name.
func (s *PostgresStore) GetByName(ctx context.Context, name string) (*domain.Drug, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postgresDrugColumns+" FROM drugs WHERE drug_name = $1 LIMIT 1", name)
	return s.scanOne(row)
}

func (s *PostgresStore) scanOne(row *sql.Row) (*domain.Drug, error) {
	d, err := scanPostgresDrug(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return d, nil
}

// List returns drugs ordered by name with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.Drug, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postgresDrugColumns+" FROM drugs ORDER BY drug_name, uuid LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Drug
	for rows.Next() {
		d, err := scanPostgresDrug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Count returns the total number of drugs.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drugs").Scan(&count)
	return count, err
}

// Delete removes a drug by UUID.
func (s *PostgresStore) Delete(ctx context.Context, uuid string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM drugs WHERE uuid = $1", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Lookup builds the name keyed lookup table from every stored drug.
func (s *PostgresStore) Lookup(ctx context.Context) (domain.DrugLookup, error) {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list drugs: %w", err)
	}
	return domain.NewDrugLookup(all), nil
}

// ExportJSON exports all drugs to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list drugs: %w", err)
	}
	return writeExport(writer, all)
}

// ImportJSON imports drugs from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importDrugs(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
