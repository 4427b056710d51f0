package auth

import (
	"context"
	"net/http"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller. The gateway in front of this service
// performs the actual authentication; we trust the identity headers it sets.
type Identity struct {
	ID   string
	Role Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by Middleware, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware extracts the caller identity from the trusted gateway headers.
// Requests without an identity are rejected; the payment callback route is
// mounted outside this middleware since the gateway calls it unauthenticated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		role := Role(r.Header.Get("X-User-Role"))
		if role != RoleAdmin {
			role = RoleUser
		}
		ctx := WithIdentity(r.Context(), Identity{ID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
