package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"practice/internal/adapters/http/perf"
)

// DefaultSlowRequest is the default threshold for slow request warnings.
const DefaultSlowRequest = 200 * time.Millisecond

// requestIDCounter is an atomic counter for request IDs.
var requestIDCounter uint64

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// statusWriterPool reduces allocations on the hot path.
var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// TimingOptions configures Timing.
type TimingOptions struct {
	Collector *perf.Collector // nil disables recording
	Slow      time.Duration   // zero uses DefaultSlowRequest
	// Routes resolves the matched route pattern so perf entries group by route
	// rather than by raw path. Nil records the path.
	Routes *http.ServeMux
}

// Timing returns middleware that logs request duration.
// Requests to /static/ and /media/ files are excluded.
// Normal requests log at DEBUG; slow requests log at WARN.
func Timing(opts TimingOptions) func(http.Handler) http.Handler {
	threshold := opts.Slow
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	thresholdMs := float64(threshold.Microseconds()) / 1000.0

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/static/") || (r.Method == http.MethodGet && strings.HasPrefix(path, "/media/")) {
				next.ServeHTTP(w, r)
				return
			}

			label := r.Method + " " + path
			if opts.Routes != nil {
				if _, pattern := opts.Routes.Handler(r); pattern != "" {
					label = pattern
				}
			}

			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				durationMs := float64(time.Since(start).Microseconds()) / 1000.0

				if durationMs >= thresholdMs {
					slog.Warn("slow_request",
						"request_id", reqID,
						"route", label,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				} else {
					slog.Debug("request",
						"request_id", reqID,
						"route", label,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				}

				if opts.Collector != nil {
					opts.Collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       label,
						StatusCode: sw.status,
						DurationMs: durationMs,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
