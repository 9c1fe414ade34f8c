package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatecore/internal/transport/http/json"
	"estatecore/internal/transport/http/shared"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *Handler) handleTenantCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	var req createTenantRequest
	if err := json.Decode(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.tenants.Create(r.Context(), actor, req.Name, req.Slug)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleTenantGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid tenant id"))
		return
	}
	t, err := h.tenants.Get(r.Context(), actor, tenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleTenantDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid tenant id"))
		return
	}
	t, err := h.tenants.Deactivate(r.Context(), actor, tenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, t)
}
