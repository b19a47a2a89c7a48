package middleware

import (
	"net/http"
	"time"

	"github.com/R3E-Network/miniapp_admin/internal/httputil"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
)

// TracingMiddleware assigns every request a trace ID and logs it on completion.
type TracingMiddleware struct {
	logger *logging.Logger
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	return &TracingMiddleware{
		logger: logger,
	}
}

// Handler returns the tracing middleware handler
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse the caller's trace ID when it sends one
		traceID := r.Header.Get(httputil.TraceIDHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = logging.NewTraceID()
		}

		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set(httputil.TraceIDHeader, traceID)

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
