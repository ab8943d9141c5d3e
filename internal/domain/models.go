package domain

import (
	"time"
)

// ResolveRequest is one saved field edit to classify and resolve.
type ResolveRequest struct {
	Gene         Gene       `json:"gene"`
	Path         string     `json:"path"`
	UpdateTime   int64      `json:"updateTime"`
	EntrezGeneID int        `json:"entrezGeneId"`
	Drugs        DrugLookup `json:"drugs,omitempty"`
}

// ResolveResult is the outcome of resolving one edit. Skipped is set when the
// path carries nothing to submit; Evidence is nil in that case.
type ResolveResult struct {
	Path         string       `json:"path"`
	Skipped      bool         `json:"skipped"`
	EvidenceType EvidenceType `json:"evidenceType,omitempty"`
	DataUUID     string       `json:"dataUuid,omitempty"`
	Evidence     *Evidence    `json:"evidence,omitempty"`
}

// SubmissionStatus tracks a submission through the forwarding pipeline.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionFailed    SubmissionStatus = "failed"
	SubmissionDuplicate SubmissionStatus = "duplicate"
)

// Submission is the persisted record of one forwarded evidence.
type Submission struct {
	ID           string           `json:"id"`
	DataUUID     string           `json:"data_uuid"`
	HugoSymbol   string           `json:"hugo_symbol"`
	EvidenceType EvidenceType     `json:"evidence_type"`
	Path         string           `json:"path"`
	Evidence     *Evidence        `json:"evidence"`
	Fingerprint  string           `json:"fingerprint"`
	Status       SubmissionStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SubmissionResult is returned by a submit call.
type SubmissionResult struct {
	ResolveResult
	SubmissionID string           `json:"submissionId,omitempty"`
	Status       SubmissionStatus `json:"status,omitempty"`
	Fingerprint  string           `json:"fingerprint,omitempty"`
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	// Submissions counts stored submissions by status.
	Submissions map[SubmissionStatus]int64 `json:"submissions,omitempty"`
}
