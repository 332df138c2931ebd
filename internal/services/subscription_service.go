package services

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/internal/infrastructure"
	"hotspotcli/internal/subscription"
	ws "hotspotcli/internal/websocket"
	"hotspotcli/pkg/contracts/domain"
)

// SubscriptionService exposes payment event intake and status queries
type SubscriptionService struct {
	machine *subscription.Machine
	hub     *ws.Hub
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewSubscriptionService creates a subscription service
func NewSubscriptionService(machine *subscription.Machine, hub *ws.Hub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionService{
		machine: machine,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "subscription")),
	}
}

// ApplyEvent applies one payment event to an account's subscription
func (s *SubscriptionService) ApplyEvent(ctx context.Context, accountID string, event domain.PaymentEvent) (*domain.Subscription, error) {
	sub, err := s.machine.Apply(ctx, accountID, event)
	if err != nil {
		var staleErr *apperrors.StaleEventError
		if s.metrics != nil && errors.As(err, &staleErr) {
			s.metrics.StaleEventsTotal.Add(ctx, 1)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentEventsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", string(event.Outcome)),
		))
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ws.TypeSubscriptionStatus, map[string]interface{}{
			"account_id": accountID,
			"status":     string(sub.Status),
			"plan":       sub.Plan,
		})
	}
	return sub, nil
}

// Status returns the account's subscription with lazily evaluated expiry
func (s *SubscriptionService) Status(ctx context.Context, accountID string) (*domain.Subscription, error) {
	return s.machine.Status(ctx, accountID)
}

// Plans returns the known billing plans
func (s *SubscriptionService) Plans() []domain.SubscriptionPlan {
	return s.machine.Plans()
}
