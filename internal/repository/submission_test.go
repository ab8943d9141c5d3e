package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oncokb/oncokb-transcript-sub003/internal/database"
	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container tests in short mode")
	}
	ctx := context.Background()
	password := "test_" + uuid.NewString()[:8]

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg := domain.DatabaseConfig{
		Host:           host,
		Port:           port.Int(),
		Database:       "testdb",
		Username:       "testuser",
		Password:       password,
		SSLMode:        "disable",
		MaxOpenConns:   5,
		MigrationsPath: "../../migrations",
	}
	db, err := database.NewConnection(ctx, cfg, logger)
	require.NoError(t, err, "Failed to create database connection")
	t.Cleanup(db.Close)

	require.NoError(t, database.RunMigrations(ctx, cfg, logger))
	return db
}

func newTestSubmission(dataUUID string, status domain.SubmissionStatus) *domain.Submission {
	evidence := domain.NewEvidence(domain.GENE_SUMMARY, "BRAF", 673)
	evidence.Description = "BRAF summary"
	evidence.LastEdit = "1000"
	return &domain.Submission{
		ID:           uuid.NewString(),
		DataUUID:     dataUUID,
		HugoSymbol:   "BRAF",
		EvidenceType: domain.GENE_SUMMARY,
		Path:         "summary",
		Evidence:     evidence,
		Fingerprint:  "fp-" + dataUUID,
		Status:       status,
	}
}

func TestSubmissionRepository_CreateAndLatest(t *testing.T) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewSubmissionRepository(db.Pool, logger)
	ctx := context.Background()

	first := newTestSubmission("gene-summary-uuid", domain.SubmissionPending)
	require.NoError(t, repo.CreateSubmission(ctx, first))
	assert.False(t, first.CreatedAt.IsZero())

	time.Sleep(10 * time.Millisecond)
	second := newTestSubmission("gene-summary-uuid", domain.SubmissionPending)
	require.NoError(t, repo.CreateSubmission(ctx, second))

	require.NoError(t, repo.UpdateSubmissionStatus(ctx, second.ID, domain.SubmissionFailed, "backend 502"))

	latest, err := repo.GetLatestSubmission(ctx, "gene-summary-uuid")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, domain.SubmissionFailed, latest.Status)
	assert.Equal(t, "backend 502", latest.Error)
	require.NotNil(t, latest.Evidence)
	assert.Equal(t, "BRAF summary", latest.Evidence.Description)
	assert.Equal(t, domain.GENE_SUMMARY, latest.EvidenceType)

	history, err := repo.ListSubmissions(ctx, "gene-summary-uuid", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	limited, err := repo.ListSubmissions(ctx, "gene-summary-uuid", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.SubmissionPending])
	assert.Equal(t, int64(1), counts[domain.SubmissionFailed])
}

func TestSubmissionRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	repo := NewSubmissionRepository(db.Pool, logger)
	ctx := context.Background()

	_, err := repo.GetLatestSubmission(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.UpdateSubmissionStatus(ctx, uuid.NewString(), domain.SubmissionSubmitted, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := repo.ListSubmissions(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSubmissionRepository_RejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	repo := NewSubmissionRepository(db.Pool, logger)

	err := repo.CreateSubmission(context.Background(), newTestSubmission("x", domain.SubmissionStatus("bogus")))
	assert.Error(t, err)
}

func TestSubmissionRepository_InvalidEvidenceType(t *testing.T) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	repo := NewSubmissionRepository(db.Pool, logger)
	ctx := context.Background()

	s := newTestSubmission("vus-uuid", domain.SubmissionPending)
	s.EvidenceType = domain.EvidenceType("VUS")
	assert.ErrorIs(t, repo.CreateSubmission(ctx, s), domain.ErrInvalidEvidenceType)

	// Rows written outside the repository are checked on read.
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO evidence_submissions (id, data_uuid, evidence_type, path, evidence, fingerprint, status)
		VALUES ($1, 'vus-uuid', 'VUS', 'summary', '{}', 'fp', 'pending')`, uuid.NewString())
	require.NoError(t, err)

	_, err = repo.GetLatestSubmission(ctx, "vus-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidEvidenceType)
}
