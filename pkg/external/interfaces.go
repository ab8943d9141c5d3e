package external

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// ExternalServiceType names a dependency reported on the health endpoint.
type ExternalServiceType string

const (
	ServiceRedis     ExternalServiceType = "redis"
	ServiceDatabase  ExternalServiceType = "database"
	ServiceIngestion ExternalServiceType = "ingestion"
)

// Pinger is anything that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceHealth represents the health status of external services
type ServiceHealth struct {
	Service   ExternalServiceType `json:"service"`
	Healthy   bool                `json:"healthy"`
	LastCheck time.Time           `json:"last_check"`
	Error     string              `json:"error,omitempty"`
}

// Compile-time interface checks.
var (
	_ domain.EvidenceSubmitter = (*EvidenceClient)(nil)
	_ domain.EvidenceSubmitter = (*ResilientEvidenceClient)(nil)
	_ domain.FingerprintCache  = (*FingerprintCache)(nil)
	_ Pinger                   = (*FingerprintCache)(nil)
	_ Pinger                   = (*ResilientEvidenceClient)(nil)
)

// CheckHealth pings every registered service concurrently.
func CheckHealth(ctx context.Context, services map[ExternalServiceType]Pinger, logger *logrus.Logger) []ServiceHealth {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]ServiceHealth, 0, len(services))
	)

	for name, svc := range services {
		if svc == nil {
			continue
		}
		wg.Add(1)
		go func(name ExternalServiceType, svc Pinger) {
			defer wg.Done()
			health := ServiceHealth{Service: name, Healthy: true, LastCheck: time.Now()}
			if err := svc.Ping(ctx); err != nil {
				health.Healthy = false
				health.Error = err.Error()
				if logger != nil {
					logger.WithError(err).WithField("service", name).Warn("Health check failed")
				}
			}
			mu.Lock()
			results = append(results, health)
			mu.Unlock()
		}(name, svc)
	}
	wg.Wait()
	return results
}
