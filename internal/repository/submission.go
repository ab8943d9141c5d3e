package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// SubmissionRepository persists evidence submissions in PostgreSQL.
type SubmissionRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *pgxpool.Pool, logger *logrus.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:  db,
		log: logger,
	}
}

const submissionColumns = `id::text, data_uuid, hugo_symbol, evidence_type, path, evidence,
	fingerprint, status, error, created_at, updated_at`

// CreateSubmission inserts a new submission row
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, s *domain.Submission) error {
	if !s.EvidenceType.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidEvidenceType, s.EvidenceType)
	}
	evidenceJSON, err := json.Marshal(s.Evidence)
	if err != nil {
		return fmt.Errorf("marshaling evidence: %w", err)
	}

	query := `
		INSERT INTO evidence_submissions (
			id, data_uuid, hugo_symbol, evidence_type, path, evidence, fingerprint, status, error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		s.ID,
		s.DataUUID,
		s.HugoSymbol,
		string(s.EvidenceType),
		s.Path,
		evidenceJSON,
		s.Fingerprint,
		string(s.Status),
		s.Error,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"submission_id": s.ID,
			"data_uuid":     s.DataUUID,
			"error":         err,
		}).Error("Failed to create submission")
		return fmt.Errorf("creating submission: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"submission_id": s.ID,
		"data_uuid":     s.DataUUID,
		"evidence_type": s.EvidenceType,
		"status":        s.Status,
	}).Debug("Submission recorded")

	return nil
}

// UpdateSubmissionStatus moves a submission to its final status
func (r *SubmissionRepository) UpdateSubmissionStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMsg string) error {
	query := `
		UPDATE evidence_submissions
		SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status), errMsg)
	if err != nil {
		return fmt.Errorf("updating submission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("submission %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetLatestSubmission returns the newest submission for a data uuid
func (r *SubmissionRepository) GetLatestSubmission(ctx context.Context, dataUUID string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM evidence_submissions
		WHERE data_uuid = $1
		ORDER BY created_at DESC, updated_at DESC
		LIMIT 1`

	s, err := scanSubmission(r.db.QueryRow(ctx, query, dataUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting latest submission: %w", err)
	}
	return s, nil
}

// ListSubmissions returns the history of a data uuid, newest first
func (r *SubmissionRepository) ListSubmissions(ctx context.Context, dataUUID string, limit int) ([]*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM evidence_submissions
		WHERE data_uuid = $1
		ORDER BY created_at DESC, updated_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, dataUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*domain.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submissions: %w", err)
	}
	return submissions, nil
}

// CountByStatus reports how many submissions sit in each status.
func (r *SubmissionRepository) CountByStatus(ctx context.Context) (map[domain.SubmissionStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM evidence_submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting submissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SubmissionStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.SubmissionStatus(status)] = count
	}
	return counts, rows.Err()
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		s            domain.Submission
		evidenceType string
		status       string
		evidenceJSON []byte
	)
	err := row.Scan(
		&s.ID,
		&s.DataUUID,
		&s.HugoSymbol,
		&evidenceType,
		&s.Path,
		&evidenceJSON,
		&s.Fingerprint,
		&status,
		&s.Error,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.EvidenceType = domain.EvidenceType(evidenceType)
	if !s.EvidenceType.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEvidenceType, evidenceType)
	}
	s.Status = domain.SubmissionStatus(status)

	if len(evidenceJSON) > 0 && string(evidenceJSON) != "null" {
		s.Evidence = &domain.Evidence{}
		if err := json.Unmarshal(evidenceJSON, s.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshaling evidence: %w", err)
		}
	}
	return &s, nil
}

var _ domain.SubmissionRepository = (*SubmissionRepository)(nil)
