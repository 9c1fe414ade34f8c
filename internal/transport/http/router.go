// Package httptransport is the thin HTTP layer. Handlers delegate to the
// domain services and never embed business rules; authorization, quota, and
// workflow decisions all happen below this package.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estatecore/internal/identity"
	"estatecore/internal/identity/token"
	"estatecore/internal/notification"
	"estatecore/internal/platform/middleware"
	propertyservice "estatecore/internal/property/service"
	"estatecore/internal/tenant"
	"estatecore/internal/transport/http/json"
)

// Pinger reports record store health for the readiness endpoint.
type Pinger interface {
	Health(ctx context.Context) error
}

// Handler bundles the services the HTTP layer fronts.
type Handler struct {
	properties    *propertyservice.Service
	tenants       *tenant.Service
	notifications *notification.Service
	db            Pinger
	logger        *slog.Logger
}

// NewHandler constructs the HTTP handler set. db may be nil when running on
// in-memory stores.
func NewHandler(properties *propertyservice.Service, tenants *tenant.Service, notifications *notification.Service, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		properties:    properties,
		tenants:       tenants,
		notifications: notifications,
		db:            db,
		logger:        logger,
	}
}

// NewRouter wires all endpoints with the middleware stack. Everything under
// /api/v1 requires a verified credential.
func NewRouter(h *Handler, verifier *token.Verifier, resolver *identity.Resolver, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(verifier, resolver))

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", h.handlePropertyCreate)
			r.Get("/", h.handlePropertyList)
			r.Route("/{propertyID}", func(r chi.Router) {
				r.Get("/", h.handlePropertyGet)
				r.Get("/approval", h.handlePropertyApprovalStatus)
				r.Post("/submit", h.handlePropertySubmit)
				r.Post("/approve", h.handlePropertyApprove)
				r.Post("/reject", h.handlePropertyReject)
				r.Post("/advance", h.handlePropertyAdvance)
				r.Post("/archive", h.handlePropertyArchive)
			})
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", h.handleTenantCreate)
			r.Get("/{tenantID}", h.handleTenantGet)
			r.Delete("/{tenantID}", h.handleTenantDeactivate)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.handleNotificationList)
			r.Post("/{notificationID}/read", h.handleNotificationMarkRead)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			json.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	json.WriteJSON(w, http.StatusOK, status)
}
