package httpapi

import (
	"net/http"

	"contractdesk/internal/domain"
	"contractdesk/internal/service"
)

// The categories and statuses tables share one handler set; the router
// binds each path prefix to its service.

type lookupNameRequest struct {
	Name string `json:"name"`
}

func (a *api) handleLookupList(w http.ResponseWriter, r *http.Request, svc *service.LookupService) {
	rows, err := svc.List(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.LookupRow{}
	}
	WriteJSON(w, http.StatusOK, rows)
}

func (a *api) handleLookupGet(w http.ResponseWriter, r *http.Request, svc *service.LookupService) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	row, err := svc.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

func (a *api) handleLookupCreate(w http.ResponseWriter, r *http.Request, svc *service.LookupService) {
	var req lookupNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	row, err := svc.Create(r.Context(), req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, row)
}

func (a *api) handleLookupRename(w http.ResponseWriter, r *http.Request, svc *service.LookupService) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	var req lookupNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	row, err := svc.Rename(r.Context(), id, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

func (a *api) handleLookupDelete(w http.ResponseWriter, r *http.Request, svc *service.LookupService) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	if err := svc.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
