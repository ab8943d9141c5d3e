package external

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// DefaultUpdatePath is the ingestion endpoint used when none is configured.
const DefaultUpdatePath = "/legacy-api/evidences/update"

// EvidenceClient posts resolved evidence to the backend ingestion API.
type EvidenceClient struct {
	httpClient *resty.Client
	updatePath string
	rateLimit  *rate.Limiter
}

// NewEvidenceClient creates a new ingestion client. RateLimit is in requests
// per second; zero or less disables limiting.
func NewEvidenceClient(config domain.SubmissionConfig) *EvidenceClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UpdatePath == "" {
		config.UpdatePath = DefaultUpdatePath
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit)
	}

	return &EvidenceClient{
		httpClient: client,
		updatePath: config.UpdatePath,
		rateLimit:  limiter,
	}
}

// SubmitEvidence posts {dataUUID: evidence}. Non-2xx answers become a
// SubmissionError carrying the status code.
func (c *EvidenceClient) SubmitEvidence(ctx context.Context, dataUUID string, evidence *domain.Evidence) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return &domain.SubmissionError{DataUUID: dataUUID, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]*domain.Evidence{dataUUID: evidence}).
		Post(c.updatePath)
	if err != nil {
		return &domain.SubmissionError{DataUUID: dataUUID, Err: err}
	}
	if resp.IsError() {
		return &domain.SubmissionError{
			DataUUID:   dataUUID,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("backend responded %s: %s", resp.Status(), truncate(resp.String(), 256)),
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
