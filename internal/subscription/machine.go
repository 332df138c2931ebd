// Package subscription tracks an account's billing-plan status. Transitions
// are driven only by normalized payment events from the external payment
// collaborator. One reference spans a payment attempt's whole life: the
// pending intake and its terminal callback carry the same reference, so each
// (reference, outcome) pair is applied at most once.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

// Store is the persistence contract the state machine requires
type Store interface {
	GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	// RecordPaymentEvent inserts the dedupe record for a (reference, outcome)
	// pair. Returns false when the pair was already recorded.
	RecordPaymentEvent(ctx context.Context, reference, accountID string, outcome domain.PaymentOutcome, at time.Time) (bool, error)
}

// Machine applies payment events to account subscriptions
type Machine struct {
	store  Store
	plans  map[string]domain.SubscriptionPlan
	logger *slog.Logger
	now    func() time.Time
}

// NewMachine creates a subscription state machine with the given plan catalog
func NewMachine(store Store, plans []domain.SubscriptionPlan, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	planMap := make(map[string]domain.SubscriptionPlan, len(plans))
	for _, p := range plans {
		planMap[p.Name] = p
	}
	return &Machine{
		store:  store,
		plans:  planMap,
		logger: logger.With(slog.String("component", "subscription_machine")),
		now:    time.Now,
	}
}

// WithClock overrides the machine clock, used by tests
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// DefaultPlans returns the stock billing plans
func DefaultPlans() []domain.SubscriptionPlan {
	return []domain.SubscriptionPlan{
		{Name: "starter", Price: 9.99, DurationDays: 30, Features: []string{"config-generation"}},
		{Name: "standard", Price: 24.99, DurationDays: 30, Features: []string{"config-generation", "voucher-batches"}},
		{Name: "annual", Price: 199.99, DurationDays: 365, Features: []string{"config-generation", "voucher-batches", "priority-support"}},
	}
}

// Plans returns the known billing plans sorted by name
func (m *Machine) Plans() []domain.SubscriptionPlan {
	result := make([]domain.SubscriptionPlan, 0, len(m.plans))
	for _, p := range m.plans {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// EvaluateStatus computes the effective subscription status from stored
// fields and the current clock, the same lazy pattern as voucher expiry.
func EvaluateStatus(stored domain.SubscriptionStatus, expiresAt *time.Time, now time.Time) domain.SubscriptionStatus {
	if stored == domain.SubscriptionActive && expiresAt != nil && !now.Before(*expiresAt) {
		return domain.SubscriptionExpired
	}
	return stored
}

// Status returns the account's subscription with its status re-evaluated
// against the current clock. Accounts never seen before report as inactive.
func (m *Machine) Status(ctx context.Context, accountID string) (*domain.Subscription, error) {
	sub, err := m.store.GetSubscription(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			return &domain.Subscription{
				AccountID: accountID,
				Status:    domain.SubscriptionInactive,
				UpdatedAt: m.now(),
			}, nil
		}
		return nil, err
	}
	sub.Status = EvaluateStatus(sub.Status, sub.ExpiresAt, m.now())
	return sub, nil
}

// Apply processes one payment event. The (reference, outcome) pair is the
// dedupe key, so the terminal callback for an in-flight attempt may carry the
// attempt's own reference while a replayed delivery of an already-applied
// outcome is rejected with StaleEventError. A duplicate pending outcome while
// the subscription is still pending is an explicit no-op. Out-of-order events
// (a completed or failed outcome while not pending) are likewise stale.
func (m *Machine) Apply(ctx context.Context, accountID string, event domain.PaymentEvent) (*domain.Subscription, error) {
	if event.Reference == "" {
		return nil, apperrors.NewValidationError("reference", "reference is required")
	}
	if !event.Outcome.Valid() {
		return nil, apperrors.NewValidationError("outcome", fmt.Sprintf("unknown outcome %q", event.Outcome))
	}

	sub, err := m.Status(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := m.now()

	// Validation and ordering checks run before the dedupe record so a
	// rejected event never burns its reference; the sender can retry it.
	next, err := m.transition(sub, event, now)
	if err != nil {
		return nil, err
	}

	fresh, err := m.store.RecordPaymentEvent(ctx, event.Reference, accountID, event.Outcome, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment event: %w", err)
	}
	if !fresh {
		if event.Outcome == domain.PaymentPending && sub.Status == domain.SubscriptionPending {
			// Duplicate delivery of the in-flight reference: idempotent no-op.
			return sub, nil
		}
		m.logger.WarnContext(ctx, "stale payment event dropped",
			slog.String("account_id", accountID),
			slog.String("reference", event.Reference),
			slog.String("outcome", string(event.Outcome)),
		)
		return nil, &apperrors.StaleEventError{Reference: event.Reference}
	}

	next.UpdatedAt = now
	if err := m.store.UpsertSubscription(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist subscription: %w", err)
	}

	m.logger.InfoContext(ctx, "subscription transition applied",
		slog.String("account_id", accountID),
		slog.String("reference", event.Reference),
		slog.String("outcome", string(event.Outcome)),
		slog.String("status", string(next.Status)),
	)

	return next, nil
}

// transition computes the next subscription state for a fresh event
func (m *Machine) transition(sub *domain.Subscription, event domain.PaymentEvent, now time.Time) (*domain.Subscription, error) {
	next := *sub

	switch event.Outcome {
	case domain.PaymentPending:
		switch sub.Status {
		case domain.SubscriptionInactive, domain.SubscriptionExpired:
			next.Status = domain.SubscriptionPending
			if event.Plan != "" {
				if _, ok := m.plans[event.Plan]; !ok {
					return nil, apperrors.NewValidationError("plan", fmt.Sprintf("unknown plan %q", event.Plan))
				}
				next.Plan = event.Plan
			}
		case domain.SubscriptionPending:
			// A new reference while already pending restarts the payment flow.
			if event.Plan != "" {
				if _, ok := m.plans[event.Plan]; !ok {
					return nil, apperrors.NewValidationError("plan", fmt.Sprintf("unknown plan %q", event.Plan))
				}
				next.Plan = event.Plan
			}
		default:
			return nil, &apperrors.StaleEventError{Reference: event.Reference}
		}

	case domain.PaymentCompleted:
		if sub.Status != domain.SubscriptionPending {
			return nil, &apperrors.StaleEventError{Reference: event.Reference}
		}
		plan, ok := m.plans[next.Plan]
		if !ok {
			return nil, apperrors.NewValidationError("plan", fmt.Sprintf("subscription has no known plan (%q)", next.Plan))
		}
		expiresAt := now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
		next.Status = domain.SubscriptionActive
		next.ExpiresAt = &expiresAt

	case domain.PaymentFailed:
		if sub.Status != domain.SubscriptionPending {
			return nil, &apperrors.StaleEventError{Reference: event.Reference}
		}
		next.Status = domain.SubscriptionInactive
	}

	return &next, nil
}
