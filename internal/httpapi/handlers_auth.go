package httpapi

import (
	"net/http"
	"strings"
	"time"

	"contractdesk/internal/domain"
	"contractdesk/internal/service"
)

type accountView struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	DisplayName        string     `json:"display_name"`
	Status             string     `json:"status"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLoginAt        *time.Time `json:"last_login_at"`
}

func viewOf(a domain.Account) accountView {
	return accountView{
		ID:                 a.ID,
		Username:           a.Username,
		DisplayName:        a.DisplayName,
		Status:             string(a.Status),
		MustChangePassword: a.MustChangePassword,
		CreatedAt:          a.CreatedAt,
		LastLoginAt:        a.LastLoginAt,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string      `json:"session_id"`
	Account   accountView `json:"account"`
}

func (a *api) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"username": "required", "password": "required"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("ip:"+ip, now) || !a.loginLimiter.Allow("username:"+service.NormalizeUsername(req.Username), now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	acct, sessID, err := a.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	a.cookies.Set(w, sessID)
	WriteJSON(w, http.StatusOK, loginResponse{SessionID: sessID, Account: viewOf(acct)})
}

// handleAuthLogout runs outside the gate so that stale or absent sessions
// still get a clean 204 and a cleared cookie.
func (a *api) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if sessID, ok := a.cookies.ExtractSessionID(r); ok {
		if err := a.authSvc.Logout(r.Context(), sessID); err != nil {
			a.logger.Warn("logout failed", "err", err)
		}
	}
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	acct, ok := CurrentAccount(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(acct))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *api) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	acct, ok := CurrentAccount(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"current_password": "required", "new_password": "required"}))
		return
	}

	if err := a.authSvc.ChangePassword(r.Context(), acct, req.CurrentPassword, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
