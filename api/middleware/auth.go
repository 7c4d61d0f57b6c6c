package middleware

import (
	"net/http"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/api/validators"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	pkgAuth "github.com/pricepilot/pricepilot-backend/pkg/auth"
	"github.com/pricepilot/pricepilot-backend/pkg/auth/session"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// Auth validates a bearer token, checks the backing session and seeds the
// request context with the acting user.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired"))
					return
				}
			}

			actor := identity.New(claims.UserID, claims.DisplayName)
			ctx := WithActor(r.Context(), actor)
			ctx = withAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
