package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"contractdesk/internal/domain"
)

type authCtxKey int

const (
	authAccountKey authCtxKey = iota
	authSessionKey
)

// Paths the gate lets through without a session, matched exactly or as a
// path-segment suffix so the /v1 mount (or any future nesting) stays
// exempt.
var exemptPaths = []string{
	"/auth/login",
	"/auth/logout",
}

// Paths an account with must_change_password set may still reach. Checked
// on every request, so the flag cannot be sidestepped by hitting other
// endpoints directly.
var passwordChangePaths = []string{
	"/auth/change-password",
	"/auth/logout",
	"/auth/me",
	"/health",
}

func pathMatchesAny(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if path == s || strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// authGate is the request interceptor in front of every API route. It
// resolves the session to an account, attaches it to the request context,
// fires a detached last-seen refresh, and enforces the password-change
// policy.
func (a *api) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pathMatchesAny(r.URL.Path, exemptPaths) {
			next.ServeHTTP(w, r)
			return
		}

		sessID, ok := a.cookies.ExtractSessionID(r)
		if !ok {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		acct, err := a.authSvc.AccountForSession(r.Context(), sessID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				a.cookies.Clear(w)
			}
			WriteDomainError(w, err)
			return
		}

		// Best-effort activity refresh: detached from the request so a
		// slow or failed update never delays the response.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.authSvc.TouchSession(ctx, sessID); err != nil {
				a.logger.Warn("session touch failed", "session_id", sessID, "err", err)
			}
		}()

		if acct.MustChangePassword && !pathMatchesAny(r.URL.Path, passwordChangePaths) {
			WriteDomainError(w, domain.ErrPasswordChangeRequired)
			return
		}

		ctx := context.WithValue(r.Context(), authAccountKey, acct)
		ctx = context.WithValue(ctx, authSessionKey, sessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CurrentAccount(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(authAccountKey).(domain.Account)
	return a, ok
}

func CurrentSessionID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(authSessionKey).(string)
	return s, ok
}
