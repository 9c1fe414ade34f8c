package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatecore/internal/identity"
	"estatecore/internal/property/models"
	"estatecore/internal/property/service"
	"estatecore/internal/transport/http/json"
	"estatecore/internal/transport/http/shared"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func (h *Handler) handlePropertyCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}

	var fields models.Fields
	if err := json.Decode(w, r, &fields); err != nil {
		shared.WriteError(w, err)
		return
	}

	property, err := h.properties.Create(r.Context(), actor, fields)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusCreated, property)
}

func (h *Handler) handlePropertyList(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}

	var query service.Query
	if raw := r.URL.Query().Get("publication"); raw != "" {
		status := models.PublicationStatus(raw)
		query.Publication = &status
	}
	query.City = r.URL.Query().Get("city")

	properties, err := h.properties.List(r.Context(), actor, query)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]any{"properties": properties})
}

func (h *Handler) handlePropertyGet(w http.ResponseWriter, r *http.Request) {
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Get(r.Context(), actor.actor, actor.propertyID)
	})
}

func (h *Handler) handlePropertyApprovalStatus(w http.ResponseWriter, r *http.Request) {
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.ApprovalStatus(r.Context(), actor.actor, actor.propertyID)
	})
}

func (h *Handler) handlePropertySubmit(w http.ResponseWriter, r *http.Request) {
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Submit(r.Context(), actor.actor, actor.propertyID)
	})
}

func (h *Handler) handlePropertyApprove(w http.ResponseWriter, r *http.Request) {
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Approve(r.Context(), actor.actor, actor.propertyID)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handlePropertyReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.Decode(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Reject(r.Context(), actor.actor, actor.propertyID, req.Reason)
	})
}

type advanceRequest struct {
	To models.PublicationStatus `json:"to"`
}

func (h *Handler) handlePropertyAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.Decode(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Advance(r.Context(), actor.actor, actor.propertyID, req.To)
	})
}

func (h *Handler) handlePropertyArchive(w http.ResponseWriter, r *http.Request) {
	h.withProperty(w, r, func(actor actorAndID) (any, error) {
		return h.properties.Archive(r.Context(), actor.actor, actor.propertyID)
	})
}

type actorAndID struct {
	actor      identity.Actor
	propertyID id.PropertyID
}

// withProperty factors the actor lookup and path-param parsing every
// single-listing endpoint repeats.
func (h *Handler) withProperty(w http.ResponseWriter, r *http.Request, fn func(actorAndID) (any, error)) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid property id"))
		return
	}
	response, err := fn(actorAndID{actor: actor, propertyID: propertyID})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, response)
}
