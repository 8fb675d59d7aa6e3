package middleware

import (
	"net/http"
	"strings"

	"github.com/gymcore/license-server/api/responses"
	pkgauth "github.com/gymcore/license-server/pkg/auth"
	"github.com/gymcore/license-server/pkg/config"
	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

// RequireAdmin validates the bearer token and seeds the operator principal
// into the request context. Applied to every state-mutating admin route.
func RequireAdmin(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, err, "invalid token"))
				return
			}

			ctx := WithAdmin(r.Context(), claims.AdminID.String(), claims.Username)
			if logg != nil {
				ctx = logg.WithAdmin(ctx, claims.Username)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
