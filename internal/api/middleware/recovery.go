package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/solarroi/solarroi/internal/api/response"
	"github.com/solarroi/solarroi/internal/metrics"
)

// Recovery turns a handler panic into a 500 envelope. The log line carries
// the route and, when the request was authenticated, the key prefix and tenant.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			route := routePattern(r)
			metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

			attrs := []any{
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
			}
			if prefix, ok := getKeyPrefix(r); ok {
				attrs = append(attrs, "key_prefix", prefix)
			}
			if tenantID, ok := GetTenantID(r); ok {
				attrs = append(attrs, "tenant_id", tenantID)
			}
			attrs = append(attrs, "stack", string(debug.Stack()))
			slog.Error("panic recovered", attrs...)

			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
