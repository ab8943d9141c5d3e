package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

var (
	// ErrSubmissionDisabled is returned by Submit when no backend client is configured.
	ErrSubmissionDisabled = errors.New("evidence submission is not configured")
	// ErrHistoryDisabled is returned by history reads without a repository.
	ErrHistoryDisabled = errors.New("submission history is not configured")
)

// SubmissionService orchestrates classify, resolve, dedupe, persist and
// forward for one curation edit. Every collaborator is optional.
type SubmissionService struct {
	logger       *logrus.Logger
	drugs        domain.DrugRegistry
	repo         domain.SubmissionRepository
	submitter    domain.EvidenceSubmitter
	fingerprints domain.FingerprintCache
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	logger *logrus.Logger,
	drugs domain.DrugRegistry,
	repo domain.SubmissionRepository,
	submitter domain.EvidenceSubmitter,
	fingerprints domain.FingerprintCache,
) *SubmissionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SubmissionService{
		logger:       logger,
		drugs:        drugs,
		repo:         repo,
		submitter:    submitter,
		fingerprints: fingerprints,
	}
}

// Resolve classifies the edit and builds its evidence. A request supplied
// drug table wins over the registry, which is read for therapeutic edits only.
func (s *SubmissionService) Resolve(ctx context.Context, req *domain.ResolveRequest) (*domain.ResolveResult, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "request is required", nil)
	}

	classified, err := Classify(&req.Gene, req.Path, req.UpdateTime, req.Drugs, req.EntrezGeneID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"path":        req.Path,
			"hugo_symbol": req.Gene.Name,
		}).Warn("Failed to classify edit")
		return nil, err
	}
	if classified == nil {
		s.logger.WithField("path", req.Path).Debug("Edit carries no evidence, skipping")
		return &domain.ResolveResult{Path: req.Path, Skipped: true}, nil
	}

	// Only therapeutic evidence names drugs.
	if classified.Type.IsTherapeutic() {
		lookup, err := s.drugLookup(ctx, req)
		if err != nil {
			return nil, err
		}
		classified.DrugLookup = lookup
	}

	resolved, err := Resolve(classified)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"path":          req.Path,
			"evidence_type": classified.Type,
		}).Warn("Failed to resolve evidence")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"path":          req.Path,
		"hugo_symbol":   req.Gene.Name,
		"evidence_type": classified.Type,
		"data_uuid":     resolved.DataUUID,
	}).Debug("Resolved evidence")

	return &domain.ResolveResult{
		Path:         req.Path,
		EvidenceType: classified.Type,
		DataUUID:     resolved.DataUUID,
		Evidence:     resolved.Evidence,
	}, nil
}

func (s *SubmissionService) drugLookup(ctx context.Context, req *domain.ResolveRequest) (domain.DrugLookup, error) {
	if len(req.Drugs) > 0 || s.drugs == nil {
		return req.Drugs, nil
	}
	lookup, err := s.drugs.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load drug lookup: %w", err)
	}
	return lookup, nil
}

// Submit resolves the edit and forwards the evidence unless an identical
// evidence was already accepted for the same data uuid.
func (s *SubmissionService) Submit(ctx context.Context, req *domain.ResolveRequest) (*domain.SubmissionResult, error) {
	resolved, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &domain.SubmissionResult{ResolveResult: *resolved}
	if resolved.Skipped {
		return result, nil
	}
	if s.submitter == nil {
		return nil, ErrSubmissionDisabled
	}

	fingerprint, err := Fingerprint(resolved.Evidence)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fingerprint

	log := s.logger.WithFields(logrus.Fields{
		"data_uuid":     resolved.DataUUID,
		"evidence_type": resolved.EvidenceType,
	})

	if s.isDuplicate(ctx, resolved.DataUUID, fingerprint, log) {
		result.Status = domain.SubmissionDuplicate
		if err := s.record(ctx, req, result); err != nil {
			return nil, err
		}
		log.Info("Evidence unchanged since last submission, not forwarding")
		return result, nil
	}

	result.Status = domain.SubmissionPending
	if err := s.record(ctx, req, result); err != nil {
		return nil, err
	}

	if err := s.submitter.SubmitEvidence(ctx, resolved.DataUUID, resolved.Evidence); err != nil {
		result.Status = domain.SubmissionFailed
		s.updateStatus(ctx, result.SubmissionID, domain.SubmissionFailed, err.Error(), log)
		log.WithError(err).Error("Failed to submit evidence")

		var subErr *domain.SubmissionError
		if !errors.As(err, &subErr) {
			err = &domain.SubmissionError{DataUUID: resolved.DataUUID, Err: err}
		}
		return result, err
	}

	result.Status = domain.SubmissionSubmitted
	s.updateStatus(ctx, result.SubmissionID, domain.SubmissionSubmitted, "", log)

	if s.fingerprints != nil {
		if err := s.fingerprints.SetFingerprint(ctx, resolved.DataUUID, fingerprint); err != nil {
			log.WithError(err).Warn("Failed to store fingerprint")
		}
	}

	log.Info("Evidence submitted")
	return result, nil
}

// A fingerprint lookup failure is not fatal; the evidence is forwarded.
func (s *SubmissionService) isDuplicate(ctx context.Context, dataUUID, fingerprint string, log *logrus.Entry) bool {
	if s.fingerprints == nil {
		return false
	}
	previous, ok, err := s.fingerprints.GetFingerprint(ctx, dataUUID)
	if err != nil {
		log.WithError(err).Warn("Fingerprint lookup failed")
		return false
	}
	return ok && previous == fingerprint
}

func (s *SubmissionService) record(ctx context.Context, req *domain.ResolveRequest, result *domain.SubmissionResult) error {
	result.SubmissionID = uuid.NewString()
	if s.repo == nil {
		return nil
	}
	submission := &domain.Submission{
		ID:           result.SubmissionID,
		DataUUID:     result.DataUUID,
		HugoSymbol:   req.Gene.Name,
		EvidenceType: result.EvidenceType,
		Path:         result.Path,
		Evidence:     result.Evidence,
		Fingerprint:  result.Fingerprint,
		Status:       result.Status,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

func (s *SubmissionService) updateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMsg string, log *logrus.Entry) {
	if s.repo == nil {
		return
	}
	if err := s.repo.UpdateSubmissionStatus(ctx, id, status, errMsg); err != nil {
		log.WithError(err).WithField("submission_id", id).Warn("Failed to update submission status")
	}
}

// Latest returns the most recent submission for a data uuid.
func (s *SubmissionService) Latest(ctx context.Context, dataUUID string) (*domain.Submission, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetLatestSubmission(ctx, dataUUID)
}

// History returns submissions for a data uuid, newest first.
func (s *SubmissionService) History(ctx context.Context, dataUUID string, limit int) ([]*domain.Submission, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListSubmissions(ctx, dataUUID, limit)
}

// StatusCounts reports how many stored submissions sit in each status.
func (s *SubmissionService) StatusCounts(ctx context.Context) (map[domain.SubmissionStatus]int64, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.CountByStatus(ctx)
}

// Fingerprint is the hex SHA-256 of the evidence JSON.
func Fingerprint(evidence *domain.Evidence) (string, error) {
	data, err := json.Marshal(evidence)
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
