package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func sampleEvidence() *domain.Evidence {
	ev := domain.NewEvidence(domain.GENE_SUMMARY, "BRAF", 673)
	ev.Description = "BRAF is a serine/threonine kinase."
	ev.LastEdit = "1700000000000"
	return ev
}

func TestEvidenceClient_SubmitEvidence(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotBody   map[string]map[string]interface{}
		callCount int32
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewEvidenceClient(domain.SubmissionConfig{
		BaseURL:    server.URL,
		UpdatePath: "/api/evidences/update",
		Token:      "secret",
		Timeout:    5 * time.Second,
	})

	err := client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&callCount))
	assert.Equal(t, "/api/evidences/update", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Contains(t, gotBody, "uuid-1")
	assert.Equal(t, "GENE_SUMMARY", gotBody["uuid-1"]["evidenceType"])
	assert.Equal(t, "1700000000000", gotBody["uuid-1"]["lastEdit"])
}

func TestEvidenceClient_DefaultPathAndNoToken(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewEvidenceClient(domain.SubmissionConfig{BaseURL: server.URL})
	require.NoError(t, client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence()))
	assert.Equal(t, DefaultUpdatePath, gotPath)
	assert.Empty(t, gotAuth)
}

func TestEvidenceClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryCount int
		wantCalls  int32
	}{
		{"bad request is not retried", http.StatusBadRequest, 2, 1},
		{"server error is retried", http.StatusInternalServerError, 2, 3},
		{"server error without retries", http.StatusBadGateway, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"rejected"}`))
			}))
			defer server.Close()

			client := NewEvidenceClient(domain.SubmissionConfig{
				BaseURL:    server.URL,
				RetryCount: tt.retryCount,
			})

			err := client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence())
			var subErr *domain.SubmissionError
			require.True(t, errors.As(err, &subErr))
			assert.Equal(t, "uuid-1", subErr.DataUUID)
			assert.Equal(t, tt.status, subErr.StatusCode)
			assert.Contains(t, err.Error(), "rejected")
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestEvidenceClient_RetryThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewEvidenceClient(domain.SubmissionConfig{BaseURL: server.URL, RetryCount: 2})
	require.NoError(t, client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEvidenceClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewEvidenceClient(domain.SubmissionConfig{BaseURL: url, Timeout: time.Second})
	err := client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence())

	var subErr *domain.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Zero(t, subErr.StatusCode)
}

func TestEvidenceClient_CancelledContext(t *testing.T) {
	client := NewEvidenceClient(domain.SubmissionConfig{BaseURL: "http://127.0.0.1:1", RateLimit: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.SubmitEvidence(ctx, "uuid-1", sampleEvidence())
	var subErr *domain.SubmissionError
	assert.True(t, errors.As(err, &subErr))
}

// MockSubmitter is a mock implementation of domain.EvidenceSubmitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) SubmitEvidence(ctx context.Context, dataUUID string, evidence *domain.Evidence) error {
	args := m.Called(ctx, dataUUID, evidence)
	return args.Error(0)
}

func TestResilientEvidenceClient_TripsOnServerErrors(t *testing.T) {
	inner := new(MockSubmitter)
	backendErr := &domain.SubmissionError{DataUUID: "uuid-1", StatusCode: http.StatusInternalServerError, Err: errors.New("boom")}
	inner.On("SubmitEvidence", mock.Anything, "uuid-1", mock.Anything).Return(backendErr).Times(3)

	client := NewResilientEvidenceClient(inner, DefaultCircuitBreakerConfig(), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := client.SubmitEvidence(ctx, "uuid-1", sampleEvidence())
		assert.ErrorIs(t, err, backendErr)
	}
	assert.Equal(t, gobreaker.StateOpen, client.GetCircuitBreakerState())
	assert.Error(t, client.Ping(ctx))

	err := client.SubmitEvidence(ctx, "uuid-1", sampleEvidence())
	var subErr *domain.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	inner.AssertNumberOfCalls(t, "SubmitEvidence", 3)
}

func TestResilientEvidenceClient_ClientErrorsDoNotTrip(t *testing.T) {
	inner := new(MockSubmitter)
	rejected := &domain.SubmissionError{DataUUID: "uuid-1", StatusCode: http.StatusBadRequest, Err: errors.New("bad evidence")}
	inner.On("SubmitEvidence", mock.Anything, "uuid-1", mock.Anything).Return(rejected)

	client := NewResilientEvidenceClient(inner, DefaultCircuitBreakerConfig(), testLogger())
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, client.SubmitEvidence(context.Background(), "uuid-1", sampleEvidence()), rejected)
	}

	assert.Equal(t, gobreaker.StateClosed, client.GetCircuitBreakerState())
	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, uint32(0), client.GetCircuitBreakerStats().TotalFailures)
}

func TestFingerprintCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := NewFingerprintCache(domain.CacheConfig{
		RedisURL:       "redis://" + mr.Addr(),
		FingerprintTTL: time.Hour,
		PoolSize:       2,
	})
	require.NoError(t, err)
	defer cache.Close()
	ctx := context.Background()

	_, ok, err := cache.GetFingerprint(ctx, "uuid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetFingerprint(ctx, "uuid-1", "abc123"))
	assert.True(t, mr.Exists("evidence:fingerprint:uuid-1"))

	fp, ok, err := cache.GetFingerprint(ctx, "uuid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", fp)

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.GetFingerprint(ctx, "uuid-1")
	require.NoError(t, err)
	assert.False(t, ok, "fingerprint should expire")

	require.NoError(t, cache.SetFingerprint(ctx, "uuid-2", "def456"))
	require.NoError(t, cache.InvalidateFingerprint(ctx, "uuid-2"))
	_, ok, err = cache.GetFingerprint(ctx, "uuid-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintCache_Errors(t *testing.T) {
	_, err := NewFingerprintCache(domain.CacheConfig{RedisURL: "not-a-url"})
	assert.ErrorContains(t, err, "failed to parse Redis URL")

	mr := miniredis.RunT(t)
	cache := NewFingerprintCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	mr.SetError("server down")

	_, _, err = cache.GetFingerprint(context.Background(), "uuid-1")
	assert.ErrorContains(t, err, "failed to get fingerprint")
	assert.Error(t, cache.SetFingerprint(context.Background(), "uuid-1", "x"))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestCheckHealth(t *testing.T) {
	results := CheckHealth(context.Background(), map[ExternalServiceType]Pinger{
		ServiceRedis:    stubPinger{},
		ServiceDatabase: stubPinger{err: errors.New("connection refused")},
	}, testLogger())

	require.Len(t, results, 2)
	byName := map[ExternalServiceType]ServiceHealth{}
	for _, r := range results {
		byName[r.Service] = r
	}
	assert.True(t, byName[ServiceRedis].Healthy)
	assert.False(t, byName[ServiceDatabase].Healthy)
	assert.Equal(t, "connection refused", byName[ServiceDatabase].Error)
}
