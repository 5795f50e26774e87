package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// LoadToken copies the session's backend token into the request context.
// Expired tokens are dropped from the session instead.
func LoadToken(logger *slog.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			token := sess.Get(shared.TokenSessionKey)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if Expired(token, now()) {
				logger.Info("session token expired", slog.String("path", r.URL.Path))
				sess.Delete(shared.TokenSessionKey)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(api.ContextWithToken(r.Context(), token)))
		})
	}
}

// RequireToken redirects requests without a usable token to the login page.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.TokenFromContext(r.Context()) == "" {
			view.RedirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
