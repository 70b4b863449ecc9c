package httpapi

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/auth"
)

// NewAuthMiddleware enforces Authorization: Bearer <JWT> on every route it wraps.
//
// On success, it stores the authenticated subject (JWT `sub`) in request context.
// Every failure gets the same 401 body; the cause is logged at debug level only.
func NewAuthMiddleware(v auth.TokenVerifier, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := auth.VerifyHeader(r.Context(), v, r.Header.Get("Authorization"))
			if err != nil {
				if logger != nil {
					logger.Debug("authentication failed",
						"path", r.URL.Path,
						"request_id", middleware.GetReqID(r.Context()),
						"err", err,
					)
				}
				writeUnauthenticated(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit subject via X-Debug-Subject and stores it in request context.
// If the header is absent, it falls back to defaultSubject (if provided).
//
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeUnauthenticated(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), domain.SubjectID(sub))))
		})
	}
}
