package httpx

import (
	"context"
	"net/http"

	"github.com/marqueehq/marquee/internal/domain"
)

type authContextKey string

const contextKeyUser authContextKey = "marquee-user"

// requirePermission gates a handler on the full authorization state
// machine: bearer token resolution, account activation, then membership
// of the permission code.
func (r *Router) requirePermission(code string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := r.auth.Authorize(req.Context(), req.Header.Get("Authorization"), code)
		if err != nil {
			r.mapError(w, req, err)
			return
		}
		ctx := context.WithValue(req.Context(), contextKeyUser, user)
		next(w, req.WithContext(ctx))
	}
}

// userFromContext extracts the authenticated user from context.
func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)
	return user, ok
}
