// internal/auth/middleware.go
//
// Request decoration with the authenticated player.
//   - Optional: attaches the user when a valid token is present, never 401s.
//   - Require: 401 unless a valid token names an existing user.

package auth

import (
	"context"
	"net/http"
)

type ctxUserKey struct{}

// Authenticator ties tokens, cookies and the user table together.
type Authenticator struct {
	Users   *Users
	Issuer  *Issuer
	Cookies Cookies
}

// FromContext returns the user attached by the middleware, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// PlayerID returns the user id when logged in, otherwise the anonymous id.
func (a *Authenticator) PlayerID(w http.ResponseWriter, r *http.Request) string {
	if u := FromContext(r.Context()); u != nil {
		return u.ID
	}
	return a.Cookies.EnsureAnonID(w, r)
}

func (a *Authenticator) lookup(r *http.Request) *User {
	tok := a.Cookies.Token(r)
	if tok == "" {
		return nil
	}
	id, _, err := a.Issuer.Parse(tok)
	if err != nil {
		return nil
	}
	u, err := a.Users.FindByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return u
}

// Optional decorates requests with the user when a valid token is present.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := a.lookup(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// Require enforces a valid token for an existing user.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := a.lookup(r)
		if u == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}
