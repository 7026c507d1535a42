// Package metrics is a small in-process registry exposed in the Prometheus
// text format at /metrics.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing number.
type Counter struct {
	name string
	help string
	val  atomic.Int64
}

func (c *Counter) Inc()            { c.val.Add(1) }
func (c *Counter) Add(delta int64) { c.val.Add(delta) }
func (c *Counter) Get() int64      { return c.val.Load() }

// Gauge is a float that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }
func (g *Gauge) Get() float64  { return math.Float64frombits(g.bits.Load()) }

// Histogram counts observations into fixed upper-bound buckets. Values above
// the last bound land in the implicit +Inf bucket.
type Histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	buckets []float64
	counts  []uint64 // len(buckets)+1, last is +Inf
	sum     float64
	count   uint64
}

func (h *Histogram) Observe(v float64) {
	i := sort.SearchFloat64s(h.buckets, v)
	h.mu.Lock()
	h.counts[i]++
	h.sum += v
	h.count++
	h.mu.Unlock()
}

// Since observes the milliseconds elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.Observe(float64(time.Since(start)) / float64(time.Millisecond))
}

// Registry holds all metrics.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Counter returns the counter called name, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// Gauge returns the gauge called name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// Histogram returns the histogram called name. Buckets are only used when the
// histogram is created.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	h := &Histogram{name: name, help: help, buckets: sorted, counts: make([]uint64, len(sorted)+1)}
	r.histograms[name] = h
	return h
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		r.mu.RLock()
		defer r.mu.RUnlock()

		for _, name := range sortedKeys(r.counters) {
			c := r.counters[name]
			writeHeader(w, name, c.help, "counter")
			fmt.Fprintf(w, "%s %d\n", name, c.Get())
		}
		for _, name := range sortedKeys(r.gauges) {
			g := r.gauges[name]
			writeHeader(w, name, g.help, "gauge")
			fmt.Fprintf(w, "%s %g\n", name, g.Get())
		}
		for _, name := range sortedKeys(r.histograms) {
			h := r.histograms[name]
			writeHeader(w, name, h.help, "histogram")
			h.mu.Lock()
			var cum uint64
			for i, ub := range h.buckets {
				cum += h.counts[i]
				fmt.Fprintf(w, "%s_bucket{le=\"%g\"} %d\n", name, ub, cum)
			}
			cum += h.counts[len(h.buckets)]
			fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", name, cum)
			fmt.Fprintf(w, "%s_sum %g\n", name, h.sum)
			fmt.Fprintf(w, "%s_count %d\n", name, h.count)
			h.mu.Unlock()
		}
	})
}

// Handler serves the Default registry.
func Handler() http.Handler { return Default.Handler() }

func writeHeader(w http.ResponseWriter, name, help, kind string) {
	help = strings.NewReplacer("\\", "\\\\", "\n", "\\n").Replace(help)
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, s)
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
