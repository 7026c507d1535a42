package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistry_Exposition(t *testing.T) {
	r := NewRegistry()
	r.Counter("spots_nominated_total", "Stored nominations").Add(3)
	r.Counter("spots_nominated_total", "ignored").Inc()
	r.Gauge("screening.enabled", "1 when screening runs").Set(1)
	h := r.Histogram("http_request_ms", "Request latency", []float64{100, 10})
	h.Observe(5)
	h.Observe(50)
	h.Observe(5000)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"# TYPE spots_nominated_total counter\nspots_nominated_total 4\n",
		"screening_enabled 1\n",
		"http_request_ms_bucket{le=\"10\"} 1\n",
		"http_request_ms_bucket{le=\"100\"} 2\n",
		"http_request_ms_bucket{le=\"+Inf\"} 3\n",
		"http_request_ms_sum 5055\n",
		"http_request_ms_count 3\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestHistogram_BoundaryGoesIntoBucket(t *testing.T) {
	h := NewRegistry().Histogram("h", "", []float64{10})
	h.Observe(10)
	if h.counts[0] != 1 {
		t.Fatalf("value equal to the bound should land in that bucket, counts=%v", h.counts)
	}
}
