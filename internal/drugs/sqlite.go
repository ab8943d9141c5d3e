package drugs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite drug store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed while an import is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteDrug(s scanner) (*domain.Drug, error) {
	d := &domain.Drug{}
	var synonyms string
	if err := s.Scan(&d.UUID, &d.DrugName, &d.NcitCode, &synonyms, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if synonyms != "" {
		if err := json.Unmarshal([]byte(synonyms), &d.Synonyms); err != nil {
			return nil, fmt.Errorf("failed to decode synonyms: %w", err)
		}
	}
	return d, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS drugs (
		uuid TEXT PRIMARY KEY,
		drug_name TEXT NOT NULL,
		ncit_code TEXT DEFAULT '',
		synonyms TEXT DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_drugs_name ON drugs(drug_name);
	`

	_, err := db.Exec(schema)
	return err
}

const sqliteDrugColumns = `uuid, drug_name, ncit_code, synonyms, created_at, updated_at`

// Save inserts a drug or updates the drug with the same UUID.
func (s *SQLiteStore) Save(ctx context.Context, drug *domain.Drug) error {
	if err := validateDrug(drug); err != nil {
		return err
	}

	synonyms, err := json.Marshal(drug.Synonyms)
	if err != nil {
		return fmt.Errorf("failed to encode synonyms: %w", err)
	}

	now := time.Now().UTC()
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx, "SELECT created_at FROM drugs WHERE uuid = ?", drug.UUID).Scan(&createdAt)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx, `
			UPDATE drugs SET drug_name = ?, ncit_code = ?, synonyms = ?, updated_at = ?
			WHERE uuid = ?
		`, drug.DrugName, drug.NcitCode, string(synonyms), now, drug.UUID)
		if err != nil {
			return fmt.Errorf("failed to update: %w", err)
		}
		drug.CreatedAt = createdAt
		drug.UpdatedAt = now
		return nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("failed to check existing: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drugs (uuid, drug_name, ncit_code, synonyms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, drug.UUID, drug.DrugName, drug.NcitCode, string(synonyms), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	drug.CreatedAt = now
	drug.UpdatedAt = now
	return nil
}

// Get returns the drug with the given UUID.
func (s *SQLiteStore) Get(ctx context.Context, uuid string) (*domain.Drug, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteDrugColumns+" FROM drugs WHERE uuid = ?", uuid)
	return s.scanOne(row)
}

// GetByName returns the drug with the given display name.
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (*domain.Drug, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteDrugColumns+" FROM drugs WHERE drug_name = ? LIMIT 1", name)
	return s.scanOne(row)
}

func (s *SQLiteStore) scanOne(row *sql.Row) (*domain.Drug, error) {
	d, err := scanSQLiteDrug(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return d, nil
}

// List returns drugs ordered by name with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.Drug, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteDrugColumns+" FROM drugs ORDER BY drug_name, uuid LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Drug
	for rows.Next() {
		d, err := scanSQLiteDrug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Count returns the total number of drugs.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drugs").Scan(&count)
	return count, err
}

// Delete removes a drug by UUID.
func (s *SQLiteStore) Delete(ctx context.Context, uuid string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM drugs WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Lookup builds the name keyed lookup table from every stored drug.
func (s *SQLiteStore) Lookup(ctx context.Context) (domain.DrugLookup, error) {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list drugs: %w", err)
	}
	return domain.NewDrugLookup(all), nil
}

// ExportJSON exports all drugs to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list drugs: %w", err)
	}
	return writeExport(writer, all)
}

// ImportJSON imports drugs from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importDrugs(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func writeExport(writer io.Writer, all []*domain.Drug) error {
	export := &DrugExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Drugs:      all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func importDrugs(ctx context.Context, store Store, reader io.Reader) (imported int, skipped int, err error) {
	var export DrugExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, d := range export.Drugs {
		_, err := store.Get(ctx, d.UUID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if err := store.Save(ctx, d); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
