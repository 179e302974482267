package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	"github.com/angelmondragon/staffstore-backend/internal/admin"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
)

// Authorizer validates an admin bearer value.
type Authorizer interface {
	Authorize(ctx context.Context, bearer string) (*admin.Principal, error)
}

// AdminAuth requires Authorization: Bearer <token|secret> and seeds the
// request context with the admin identity.
func AdminAuth(authz Authorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || authz == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			principal, err := authz.Authorize(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAdmin(r.Context(), principal.Subject, principal.Method)
			if logg != nil {
				ctx = logg.WithActor(ctx, principal.Subject)
				ctx = logg.WithField(ctx, "auth_method", principal.Method)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}
