package server

import (
	"net/http"
	"time"

	"github.com/nikitatsym/ticktick-mcp/internal/instrumentation"
)

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// InstrumentHTTPHandler wraps an HTTP handler with request metrics and an
// in-flight session gauge. Returns the handler unchanged when metrics is
// nil or a zero-value recorder.
func InstrumentHTTPHandler(path string, handler http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.IncrementActiveSessions(r.Context())
		defer metrics.DecrementActiveSessions(r.Context())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}
