package auth

import (
	"net/http"
	"strings"
	"time"
)

const anonCookieName = "trainer_anon"

// Cookies writes the auth and anonymous-player cookies.
type Cookies struct {
	Name   string // auth token cookie
	Secure bool   // production: Secure + SameSite=None
}

func (c Cookies) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetAuth writes the auth token cookie.
func (c Cookies) SetAuth(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  exp,
	})
}

// ClearAuth deletes the auth token cookie.
func (c Cookies) ClearAuth(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		MaxAge:   -1,
	})
}

// EnsureAnonID returns the anonymous player id, setting a new cookie when
// the request carries none.
func (c Cookies) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(anonCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	id := "anon-" + GenID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	// later handlers in the same request see the id too
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

// Token extracts a bearer token from the Authorization header or the auth cookie.
func (c Cookies) Token(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if ck, err := r.Cookie(c.Name); err == nil {
		return ck.Value
	}
	return ""
}
