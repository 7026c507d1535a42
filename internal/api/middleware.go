package api

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"builder-maps/pkg/logging"
	"builder-maps/pkg/metrics"
)

const requestIDHeader = "X-Request-ID"

var (
	mRequests = metrics.Default.Counter("http_requests_total", "HTTP requests served")
	mErrors   = metrics.Default.Counter("http_errors_total", "HTTP responses with status >= 500")
	mLatency  = metrics.Default.Histogram("http_request_duration_ms", "HTTP request latency (ms)", []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500})
)

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
	sw.ResponseWriter.WriteHeader(statusCode)
}

// requestIDMiddleware reuses a sane incoming X-Request-ID or assigns a UUID.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs one line per request and records request metrics.
func loggingMiddleware(logger *logging.Logger) mux.MiddlewareFunc {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)

			mRequests.Inc()
			mLatency.Since(start)
			if sw.statusCode >= 500 {
				mErrors.Inc()
			}
			log.Info(r.Context(), "request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", sw.statusCode),
				logging.Int64("duration_ms", time.Since(start).Milliseconds()))
		})
	}
}

// recoverMiddleware turns a handler panic into a 500.
func recoverMiddleware(logger *logging.Logger) mux.MiddlewareFunc {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "panic in handler", nil,
						logging.Any("panic", rec), logging.String("stack", string(debug.Stack())))
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{
						Error:     "internal server error",
						RequestID: logging.RequestIDFrom(r.Context()),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}
