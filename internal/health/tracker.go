package health

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/sirupsen/logrus"
)

// Checker checks the health of a single component.
type Checker func(ctx context.Context) (string, error)

// Pinger is satisfied by the postgres and redis adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ObjectLister is satisfied by the S3 adapter.
type ObjectLister interface {
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// StatusProber is satisfied by service.Dispatcher: one entry per native
// service instance, nil when it answered STATUS.
type StatusProber interface {
	Status(ctx context.Context) map[string]error
}

// Tracker manages health checks for the model server and its dependencies.
type Tracker struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	statuses map[string]*common.ComponentHealth
	logger   *logrus.Entry
}

// NewTracker creates a new health tracker. A nil logger discards output.
func NewTracker(logger *logrus.Entry) *Tracker {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Tracker{
		checkers: make(map[string]Checker),
		statuses: make(map[string]*common.ComponentHealth),
		logger:   logger,
	}
}

// RegisterChecker registers a health checker for a component.
func (t *Tracker) RegisterChecker(component string, checker Checker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkers[component] = checker
}

// RegisterPostgres registers a PostgreSQL health checker. The model server
// cannot load entities without it, so failures are unhealthy.
func (t *Tracker) RegisterPostgres(db Pinger) {
	t.RegisterChecker("postgresql", func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return common.HealthStatusUnhealthy, fmt.Errorf("ping failed: %w", err)
		}
		return common.HealthStatusHealthy, nil
	})
}

// RegisterRedis registers a Redis health checker.
func (t *Tracker) RegisterRedis(redis Pinger) {
	t.RegisterChecker("redis", func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		if err := redis.Ping(ctx); err != nil {
			return common.HealthStatusDegraded, fmt.Errorf("ping failed: %w", err)
		}
		return common.HealthStatusHealthy, nil
	})
}

// RegisterS3 registers an S3 health checker listing prefix.
func (t *Tracker) RegisterS3(s3 ObjectLister, prefix string) {
	t.RegisterChecker("s3", func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if _, err := s3.ListObjects(ctx, prefix); err != nil {
			return common.HealthStatusDegraded, fmt.Errorf("list failed: %w", err)
		}
		return common.HealthStatusHealthy, nil
	})
}

// RegisterServices probes every native service instance with STATUS. Any
// silent instance degrades the component.
func (t *Tracker) RegisterServices(prober StatusProber) {
	t.RegisterChecker("services", func(ctx context.Context) (string, error) {
		results := prober.Status(ctx)
		var down []string
		for addr, err := range results {
			if err != nil {
				down = append(down, fmt.Sprintf("%s: %v", addr, err))
			}
		}
		if len(down) == 0 {
			return common.HealthStatusHealthy, nil
		}
		sort.Strings(down)
		return common.HealthStatusDegraded, fmt.Errorf("%d of %d instances down: %s",
			len(down), len(results), strings.Join(down, "; "))
	})
}

// CheckAll runs all registered health checks concurrently and returns the
// component statuses.
func (t *Tracker) CheckAll(ctx context.Context) map[string]*common.ComponentHealth {
	t.mu.RLock()
	checkers := make(map[string]Checker, len(t.checkers))
	for k, v := range t.checkers {
		checkers[k] = v
	}
	t.mu.RUnlock()

	results := make(map[string]*common.ComponentHealth, len(checkers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for component, checker := range checkers {
		wg.Add(1)
		go func(name string, ch Checker) {
			defer wg.Done()
			start := time.Now()
			status, err := ch(ctx)
			latency := time.Since(start)

			health := &common.ComponentHealth{
				Component:     name,
				Status:        status,
				LastHeartbeat: time.Now().UTC(),
				LatencyMs:     latency.Milliseconds(),
			}
			if err != nil {
				health.Message = err.Error()
				t.logger.WithError(err).WithFields(logrus.Fields{
					"component": name,
					"status":    status,
				}).Warn("Health check failed")
			}

			mu.Lock()
			results[name] = health
			mu.Unlock()
		}(component, checker)
	}

	wg.Wait()

	t.mu.Lock()
	t.statuses = results
	t.mu.Unlock()

	return results
}

// AggregateStatus returns the overall status: the worst of the components.
func (t *Tracker) AggregateStatus() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	hasUnhealthy := false
	hasDegraded := false

	for _, h := range t.statuses {
		switch h.Status {
		case common.HealthStatusUnhealthy:
			hasUnhealthy = true
		case common.HealthStatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return common.HealthStatusUnhealthy
	}
	if hasDegraded {
		return common.HealthStatusDegraded
	}
	return common.HealthStatusHealthy
}

// GetStatuses returns the current cached component statuses.
func (t *Tracker) GetStatuses() map[string]*common.ComponentHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]*common.ComponentHealth, len(t.statuses))
	for k, v := range t.statuses {
		copied := *v
		result[k] = &copied
	}
	return result
}

// RunLoop checks every interval until ctx is done.
func (t *Tracker) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckAll(ctx)
			if status := t.AggregateStatus(); status != common.HealthStatusHealthy {
				t.logger.WithField("status", status).Warn("Model server health degraded")
			}
		}
	}
}
