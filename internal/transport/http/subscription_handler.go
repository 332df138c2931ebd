package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/internal/services"
	"hotspotcli/pkg/contracts/domain"
)

// SubscriptionHandler handles subscription HTTP requests
type SubscriptionHandler struct {
	service *services.SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a subscription handler
func NewSubscriptionHandler(service *services.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "subscription")),
	}
}

// Routes returns the subscription sub-router
func (h *SubscriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/plans", h.Plans)
	r.Get("/{account}", h.Status)
	r.Post("/{account}/events", h.ApplyEvent)

	return r
}

// PaymentEventRequest is the wire form of a payment event
type PaymentEventRequest struct {
	domain.PaymentEvent
}

// Bind implements render.Binder
func (p *PaymentEventRequest) Bind(r *http.Request) error {
	return validate.Struct(&p.PaymentEvent)
}

// ApplyEvent handles POST /api/subscriptions/{account}/events
func (h *SubscriptionHandler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "account")

	req := &PaymentEventRequest{}
	if err := render.Bind(r, req); err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	sub, err := h.service.ApplyEvent(ctx, accountID, req.PaymentEvent)
	if err != nil {
		h.logger.WarnContext(ctx, "payment event rejected",
			slog.String("account_id", accountID),
			slog.String("reference", req.Reference),
			slog.String("error", err.Error()),
		)
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	render.JSON(w, r, sub)
}

// Status handles GET /api/subscriptions/{account}
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "account")

	sub, err := h.service.Status(ctx, accountID)
	if err != nil {
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	render.JSON(w, r, sub)
}

// Plans handles GET /api/subscriptions/plans
func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"plans": h.service.Plans(),
	})
}
