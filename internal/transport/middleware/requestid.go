package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/budget-tracker/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// RequestID attaches a trace id, taken from X-Trace-ID or generated, to the
// response headers and to a request-scoped logger derived from base.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			fields := []any{"trace_id", traceID}
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, "request_id", reqID)
			}
			ctx := logger.Attach(r.Context(), base.With(fields...))

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
