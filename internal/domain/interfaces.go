package domain

import (
	"context"
)

// DrugRegistry supplies the drug lookup table used to resolve treatments.
type DrugRegistry interface {
	Lookup(ctx context.Context) (DrugLookup, error)
}

// SubmissionRepository persists every forwarded evidence submission.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *Submission) error
	UpdateSubmissionStatus(ctx context.Context, id string, status SubmissionStatus, errMsg string) error
	GetLatestSubmission(ctx context.Context, dataUUID string) (*Submission, error)
	ListSubmissions(ctx context.Context, dataUUID string, limit int) ([]*Submission, error)
	CountByStatus(ctx context.Context) (map[SubmissionStatus]int64, error)
}

// EvidenceSubmitter forwards resolved evidence to the backend ingestion API.
type EvidenceSubmitter interface {
	SubmitEvidence(ctx context.Context, dataUUID string, evidence *Evidence) error
}

// FingerprintCache remembers the last submitted fingerprint per data uuid.
type FingerprintCache interface {
	GetFingerprint(ctx context.Context, dataUUID string) (string, bool, error)
	SetFingerprint(ctx context.Context, dataUUID, fingerprint string) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetSubmissionConfig() *SubmissionConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
