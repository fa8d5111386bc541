package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/geovisor/geovisor/internal/httperr"
	"github.com/geovisor/geovisor/models"
)

// UserLoader resolves a user id from a verified token to the account record.
type UserLoader interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
}

type userKey struct{}

// Middleware authenticates requests with an Authorization bearer token and
// stores the resolved user in the request context. Inactive accounts are
// rejected.
func Middleware(users UserLoader, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httperr.Write(w, httperr.Unauthorized("Not authenticated"))
				return
			}
			id, err := ParseAccessToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				httperr.Write(w, httperr.Unauthorized("Could not validate credentials"))
				return
			}
			user, err := users.ByID(r.Context(), id)
			if err != nil {
				httperr.Write(w, err)
				return
			}
			if user == nil {
				httperr.Write(w, httperr.Unauthorized("Could not validate credentials"))
				return
			}
			if !user.IsActive {
				httperr.Write(w, httperr.Unauthorized("Inactive user"))
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user stored by Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok
}
