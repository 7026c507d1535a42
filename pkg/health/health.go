// Package health aggregates component checks for the /healthz endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Critical bool          `json:"critical"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) error
}

func (f funcChecker) Name() string { return f.name }

func (f funcChecker) Check(ctx context.Context) ComponentHealth {
	if err := f.fn(ctx); err != nil {
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: err.Error()}
	}
	return ComponentHealth{Status: HealthStatusHealthy}
}

// NewFuncChecker adapts fn; a nil error is healthy.
func NewFuncChecker(name string, fn func(ctx context.Context) error) HealthChecker {
	return funcChecker{name: name, fn: fn}
}

// Pinger is satisfied by *database.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewDatabaseChecker reports unhealthy when the database does not answer a ping.
func NewDatabaseChecker(name string, db Pinger) HealthChecker {
	return NewFuncChecker(name, db.PingContext)
}

type registered struct {
	checker  HealthChecker
	critical bool
}

// Manager runs registered checks. A failing critical check makes the system
// unhealthy; a failing non-critical one only degrades it.
type Manager struct {
	mu      sync.RWMutex
	checks  []registered
	timeout time.Duration
	started time.Time
}

func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{timeout: timeout, started: time.Now()}
}

// Register adds a checker.
func (m *Manager) Register(c HealthChecker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, registered{checker: c, critical: critical})
}

// CheckAll runs every checker concurrently.
func (m *Manager) CheckAll(ctx context.Context) SystemHealth {
	m.mu.RLock()
	checks := append([]registered(nil), m.checks...)
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results := make([]ComponentHealth, len(checks))
	var g errgroup.Group
	for i, rc := range checks {
		g.Go(func() error {
			start := time.Now()
			ch := rc.checker.Check(ctx)
			ch.Name = rc.checker.Name()
			ch.Critical = rc.critical
			ch.Duration = time.Since(start)
			results[i] = ch
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	status := HealthStatusHealthy
	for _, r := range results {
		if r.Status == HealthStatusHealthy {
			continue
		}
		if r.Critical {
			status = HealthStatusUnhealthy
			break
		}
		status = HealthStatusDegraded
	}

	return SystemHealth{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(m.started).Round(time.Second).String(),
		Components: results,
	}
}

// Handler serves CheckAll as JSON, with 503 when unhealthy.
func (m *Manager) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := m.CheckAll(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if h.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
}
