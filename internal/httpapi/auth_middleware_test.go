package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contractdesk/internal/auth"

	"github.com/google/uuid"
)

func doRequest(f *fixture, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, r)
	return rr
}

func withSession(r *http.Request, sessID string) *http.Request {
	r.AddCookie(&http.Cookie{Name: "cd_session", Value: sessID})
	return r
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return env.Error.Code
}

func TestGateExemptsLogin(t *testing.T) {
	f := newFixture(t)

	// No session, but the login route must still be reachable; the empty
	// body trips validation inside the handler, not the gate's 401.
	rr := doRequest(f, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
	if rr.Code == http.StatusUnauthorized {
		t.Fatalf("login should bypass the gate, got %d", rr.Code)
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGateRejectsMissingSession(t *testing.T) {
	f := newFixture(t)

	rr := doRequest(f, httptest.NewRequest(http.MethodGet, "/v1/contracts", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "not_authenticated" {
		t.Fatalf("code = %q", code)
	}
}

func TestGateRejectsStaleSessionAndClearsCookie(t *testing.T) {
	f := newFixture(t)

	r := withSession(httptest.NewRequest(http.MethodGet, "/v1/contracts", nil), uuid.NewString())
	rr := doRequest(f, r)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected clearing cookie, got %+v", cookies)
	}
}

func TestGateRejectsMalformedSessionID(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/v1/contracts", nil)
	r.Header.Set(auth.SessionTokenHeader, "'; DROP TABLE sessions; --")
	rr := doRequest(f, r)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGateAttachesAccount(t *testing.T) {
	f := newFixture(t)
	acct, sessID := f.seedLogin(t, "rivera", "opensesame", false)

	rr := doRequest(f, withSession(httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil), sessID))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}

	var view accountView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID != acct.ID || view.Username != "rivera" {
		t.Fatalf("unexpected account: %+v", view)
	}
}

func TestGateSessionViaHeaderAndBearer(t *testing.T) {
	f := newFixture(t)
	_, sessID := f.seedLogin(t, "rivera", "opensesame", false)

	r := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	r.Header.Set(auth.SessionTokenHeader, sessID)
	if rr := doRequest(f, r); rr.Code != http.StatusOK {
		t.Fatalf("header token: status = %d", rr.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+sessID)
	if rr := doRequest(f, r); rr.Code != http.StatusOK {
		t.Fatalf("bearer token: status = %d", rr.Code)
	}
}

func TestGateEnforcesPasswordChange(t *testing.T) {
	f := newFixture(t)
	_, sessID := f.seedLogin(t, "rivera", "opensesame", true)

	// Blocked everywhere except the password-change allow-list.
	rr := doRequest(f, withSession(httptest.NewRequest(http.MethodGet, "/v1/contracts", nil), sessID))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("contracts: status = %d", rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "password_change_required" {
		t.Fatalf("code = %q", code)
	}

	for _, path := range []string{"/v1/auth/me", "/v1/health"} {
		rr := doRequest(f, withSession(httptest.NewRequest(http.MethodGet, path, nil), sessID))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rr.Code)
		}
	}
}

func TestGateJSON404ForUnknownAPIPath(t *testing.T) {
	f := newFixture(t)
	_, sessID := f.seedLogin(t, "rivera", "opensesame", false)

	rr := doRequest(f, withSession(httptest.NewRequest(http.MethodGet, "/v1/no-such-thing", nil), sessID))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	f := newFixture(t)

	rr := doRequest(f, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}
