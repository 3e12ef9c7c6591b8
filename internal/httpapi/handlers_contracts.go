package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"contractdesk/internal/domain"
)

// pathID parses the {id} segment; non-integer ids fail fast with a 400
// before anything reaches the store.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (a *api) handleContractsList(w http.ResponseWriter, r *http.Request) {
	limit, offset := 0, 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}

	contracts, err := a.contractSvc.List(r.Context(), limit, offset)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if contracts == nil {
		contracts = []domain.Contract{}
	}
	WriteJSON(w, http.StatusOK, contracts)
}

func (a *api) handleContractsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	c, err := a.contractSvc.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (a *api) handleContractsCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeJSONMap(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	actor := actorFrom(r)
	c, err := a.contractSvc.Create(r.Context(), actor, payload)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (a *api) handleContractsPatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	payload, err := decodeJSONMap(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	actor := actorFrom(r)
	c, err := a.contractSvc.Patch(r.Context(), actor, id, payload)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (a *api) handleContractsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "must be an integer"}))
		return
	}

	if err := a.contractSvc.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorFrom(r *http.Request) *domain.Account {
	if acct, ok := CurrentAccount(r.Context()); ok {
		return &acct
	}
	return nil
}
