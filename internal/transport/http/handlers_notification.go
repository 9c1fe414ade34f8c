package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatecore/internal/transport/http/json"
	"estatecore/internal/transport/http/shared"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func (h *Handler) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notifications.List(r.Context(), actor.TenantID, actor.PrincipalID, unreadOnly)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) handleNotificationMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "no verified principal present"))
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	// recipient scoping: marking another principal's notification reads as
	// not found
	n, err := h.notifications.MarkRead(r.Context(), notificationID, actor.PrincipalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, n)
}
