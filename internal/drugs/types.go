// Package drugs provides the drug registry used to resolve treatment names.
// Drugs are stored with their synonyms; Lookup turns the registry into the
// name keyed table consumed by the evidence resolver.
package drugs

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// Store defines the interface for drug registry operations.
type Store interface {
	// Save inserts a drug or updates the drug with the same UUID.
	Save(ctx context.Context, drug *domain.Drug) error

	// Get returns the drug with the given UUID or domain.ErrNotFound.
	Get(ctx context.Context, uuid string) (*domain.Drug, error)

	// GetByName returns the drug with the given display name or domain.ErrNotFound.
	GetByName(ctx context.Context, name string) (*domain.Drug, error)

	// List returns drugs ordered by name with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.Drug, error)

	// Count returns the total number of drugs.
	Count(ctx context.Context) (int64, error)

	// Delete removes a drug by UUID.
	Delete(ctx context.Context, uuid string) error

	// Lookup builds the name (and synonym) keyed lookup table.
	Lookup(ctx context.Context) (domain.DrugLookup, error)

	// ExportJSON exports all drugs to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports drugs from a JSON reader, skipping UUIDs already present.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// DrugExport represents the JSON export format.
type DrugExport struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Drugs      []*domain.Drug `json:"drugs"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

func validateDrug(drug *domain.Drug) error {
	if drug == nil {
		return domain.NewValidationError("drug", "drug is required", nil)
	}
	if strings.TrimSpace(drug.UUID) == "" {
		return domain.NewValidationError("uuid", "must not be empty", drug.UUID)
	}
	if strings.TrimSpace(drug.DrugName) == "" {
		return domain.NewValidationError("drugName", "must not be empty", drug.DrugName)
	}
	drug.DrugName = strings.TrimSpace(drug.DrugName)
	return nil
}
