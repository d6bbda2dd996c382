package shield

import (
	"log/slog"
	"net/http"

	"github.com/hazyhaar/figdiff/idgen"
	"github.com/hazyhaar/figdiff/kit"
)

// RequestIDHeader echoes the request ID to the client.
const RequestIDHeader = "X-Request-ID"

var newRequestID = idgen.Prefixed("req_", idgen.UUIDv7())

// RequestID tags each request with an ID, stored with kit.WithRequestID
// and returned in RequestIDHeader, and logs it at debug level.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := newRequestID()
			w.Header().Set(RequestIDHeader, id)
			logger.Debug("shield: request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
