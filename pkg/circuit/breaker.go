// Package circuit guards calls to external APIs (Google Maps, OpenAI) so a
// failing upstream is skipped quickly instead of slowing every request.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"builder-maps/pkg/logging"
	"builder-maps/pkg/metrics"
)

// State represents the circuit breaker state
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Config tunes a circuit breaker instance.
type Config struct {
	Name              string
	OperationTimeout  time.Duration // per-call timeout, 0 for none
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

type Breaker struct {
	cfg        Config
	mu         sync.Mutex
	st         State
	nextProbe  time.Time
	consecFail int
	probing    bool
	now        func() time.Time

	log      *logging.ComponentLogger
	mState   *metrics.Gauge
	mOpen    *metrics.Counter
	mFailure *metrics.Counter
	mLatency *metrics.Histogram
}

func New(cfg Config, logger *logging.Logger) *Breaker {
	if cfg.MaxConsecFailures <= 0 {
		cfg.MaxConsecFailures = 5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	b := &Breaker{
		cfg:      cfg,
		now:      time.Now,
		mState:   metrics.Default.Gauge("cb_"+cfg.Name+"_state", "Circuit breaker state (0=closed,1=open,2=half-open)"),
		mOpen:    metrics.Default.Counter("cb_"+cfg.Name+"_opens_total", "Circuit opened events"),
		mFailure: metrics.Default.Counter("cb_"+cfg.Name+"_failures_total", "Failed calls through circuit"),
		mLatency: metrics.Default.Histogram("cb_"+cfg.Name+"_latency_ms", "Latency of calls (ms)", []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000}),
	}
	if logger != nil {
		b.log = logger.WithComponent("circuit")
	}
	b.mState.Set(0)
	return b
}

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	b.mState.Set(float64(st))
	if st == Open {
		b.mOpen.Inc()
		b.nextProbe = b.now().Add(b.cfg.OpenFor)
	}
	if b.log != nil {
		b.log.Info(context.Background(), "breaker state change",
			logging.String("name", b.cfg.Name), logging.String("state", st.String()))
	}
}

// Do runs op under the breaker. While open it returns ErrOpen without calling
// op; after OpenFor one probe call is let through.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.st {
	case Open:
		if b.now().Before(b.nextProbe) {
			b.mu.Unlock()
			return ErrOpen
		}
		b.setStateLocked(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}

	start := time.Now()
	err := op(ctx)
	b.mLatency.Since(start)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil {
		b.mFailure.Inc()
		b.consecFail++
		if b.st == HalfOpen || b.consecFail >= b.cfg.MaxConsecFailures {
			b.setStateLocked(Open)
		}
		return err
	}

	b.consecFail = 0
	b.setStateLocked(Closed)
	return nil
}
