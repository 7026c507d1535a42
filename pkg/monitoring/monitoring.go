// Package monitoring serves the operator-only debug endpoints (pprof and a
// copy of the metrics registry) on a port separate from the public API.
package monitoring

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	pp "net/http/pprof"

	"builder-maps/pkg/metrics"
)

var startedAt = time.Now()

// RuntimeStats is a point-in-time snapshot of the Go runtime.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	HeapObjects   uint64  `json:"heap_objects"`
	NumGC         uint32  `json:"num_gc"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// ReadRuntimeStats collects RuntimeStats.
func ReadRuntimeStats() RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(ms.HeapAlloc) / (1 << 20),
		HeapObjects:   ms.HeapObjects,
		NumGC:         ms.NumGC,
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	}
}

// NewDebugMux returns a mux with /metrics, /debug/runtime and, when
// profiling is on, the pprof handlers.
func NewDebugMux(reg *metrics.Registry, profiling bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/debug/runtime", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ReadRuntimeStats())
	})
	if profiling {
		RegisterPprof(mux)
	}
	return mux
}

// RegisterPprof registers all standard pprof handlers on the provided mux under /debug/pprof/.
func RegisterPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pp.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pp.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pp.Profile) // CPU profile
	mux.HandleFunc("/debug/pprof/symbol", pp.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pp.Trace)
	mux.Handle("/debug/pprof/goroutine", pp.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pp.Handler("heap"))
	mux.Handle("/debug/pprof/block", pp.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pp.Handler("mutex"))
}

// EnableProfiling toggles block and mutex sampling.
func EnableProfiling(enabled bool) {
	if enabled {
		runtime.SetBlockProfileRate(1)
		runtime.SetMutexProfileFraction(5)
		return
	}
	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)
}
