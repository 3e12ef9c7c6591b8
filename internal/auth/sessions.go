package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionTokenHeader is a convenience for non-browser clients during
// development; the Authorization bearer form is the supported fallback.
const SessionTokenHeader = "X-Session-Token"

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// CookieConfig carries the session cookie settings. It is built once from
// configuration and handed to the HTTP layer at construction.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (c CookieConfig) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.TTL.Seconds()),
		Expires:  time.Now().Add(c.TTL),
	})
}

func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// ExtractSessionID resolves the session identifier from a request.
// Resolution order: session cookie, X-Session-Token header, bearer token.
// The first transport that carries a value wins.
func (c CookieConfig) ExtractSessionID(r *http.Request) (string, bool) {
	if ck, err := r.Cookie(c.Name); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	if v := strings.TrimSpace(r.Header.Get(SessionTokenHeader)); v != "" {
		return v, true
	}
	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return tok, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(value[len(prefix):])
	return tok, tok != ""
}
