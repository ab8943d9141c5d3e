package external

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests uint32        `json:"max_requests"`
	Interval    time.Duration `json:"interval"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultCircuitBreakerConfig returns the breaker settings used for the
// ingestion API.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
	}
}

// ResilientEvidenceClient wraps an EvidenceSubmitter with a circuit breaker.
type ResilientEvidenceClient struct {
	client  domain.EvidenceSubmitter
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewResilientEvidenceClient creates a breaker protected submitter. The
// breaker trips once at least 3 requests were seen and 60% of them failed.
func NewResilientEvidenceClient(client domain.EvidenceSubmitter, config CircuitBreakerConfig, logger *logrus.Logger) *ResilientEvidenceClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EvidenceIngestion",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientEvidenceClient{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Client rejections (4xx) say nothing about backend health.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.StatusCode >= http.StatusBadRequest && subErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// SubmitEvidence forwards through the breaker. An open breaker fails fast
// with a SubmissionError wrapping gobreaker.ErrOpenState.
func (r *ResilientEvidenceClient) SubmitEvidence(ctx context.Context, dataUUID string, evidence *domain.Evidence) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.SubmitEvidence(ctx, dataUUID, evidence)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.SubmissionError{DataUUID: dataUUID, Err: err}
	}
	return err
}

// GetCircuitBreakerStats returns the breaker counters
func (r *ResilientEvidenceClient) GetCircuitBreakerStats() gobreaker.Counts {
	return r.breaker.Counts()
}

// GetCircuitBreakerState returns the current breaker state
func (r *ResilientEvidenceClient) GetCircuitBreakerState() gobreaker.State {
	return r.breaker.State()
}

// Ping reports the ingestion API unhealthy while the breaker is open.
func (r *ResilientEvidenceClient) Ping(ctx context.Context) error {
	if r.breaker.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return nil
}
