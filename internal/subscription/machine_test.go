package subscription

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

// memSubStore is an in-memory Store for machine tests
type memSubStore struct {
	mu     sync.Mutex
	subs   map[string]domain.Subscription
	events map[string]bool
}

func newMemSubStore() *memSubStore {
	return &memSubStore{
		subs:   make(map[string]domain.Subscription),
		events: make(map[string]bool),
	}
}

func (m *memSubStore) GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[accountID]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", accountID, apperrors.ErrNotFoundSentinel)
	}
	return &sub, nil
}

func (m *memSubStore) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.AccountID] = *sub
	return nil
}

func (m *memSubStore) RecordPaymentEvent(ctx context.Context, reference, accountID string, outcome domain.PaymentOutcome, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reference + "|" + string(outcome)
	if m.events[key] {
		return false, nil
	}
	m.events[key] = true
	return true, nil
}

func testMachine(store Store, now time.Time) *Machine {
	return NewMachine(store, DefaultPlans(), nil).WithClock(func() time.Time { return now })
}

func TestStatus_UnknownAccountIsInactive(t *testing.T) {
	m := testMachine(newMemSubStore(), time.Now())
	sub, err := m.Status(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionInactive, sub.Status)
}

func TestApply_HappyPath(t *testing.T) {
	store := newMemSubStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testMachine(store, now)
	ctx := context.Background()

	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "standard"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
	assert.Equal(t, "standard", sub.Plan)

	sub, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentCompleted})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.ExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *sub.ExpiresAt)
	assert.Equal(t, 30, sub.DaysRemaining(now))
}

func TestApply_SameReferenceSpansAttemptLifecycle(t *testing.T) {
	store := newMemSubStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testMachine(store, now)
	ctx := context.Background()

	// The gateway reports the pending intake and its terminal callback under
	// one reference.
	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "standard"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPending, sub.Status)

	sub, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentCompleted})
	require.NoError(t, err, "the attempt's own terminal callback must apply")
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.ExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *sub.ExpiresAt)

	// Replaying the already-applied terminal outcome is stale.
	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentCompleted})
	var staleErr *apperrors.StaleEventError
	require.ErrorAs(t, err, &staleErr)
}

func TestApply_SameReferenceFailureCallback(t *testing.T) {
	store := newMemSubStore()
	m := testMachine(store, time.Now())
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)

	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentFailed})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionInactive, sub.Status)
}

func TestApply_ReplayedReferenceIsStale(t *testing.T) {
	store := newMemSubStore()
	m := testMachine(store, time.Now())
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)
	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentCompleted})
	require.NoError(t, err)

	// Replay of the completed reference must be rejected and must not
	// disturb the active subscription.
	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentCompleted})
	var staleErr *apperrors.StaleEventError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, "ref-2", staleErr.Reference)

	sub, err := m.Status(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
}

func TestApply_DuplicatePendingWhilePendingIsNoOp(t *testing.T) {
	store := newMemSubStore()
	m := testMachine(store, time.Now())
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)

	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending})
	require.NoError(t, err, "duplicate pending delivery is idempotent")
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
}

func TestApply_OutOfOrderCompletedIsStale(t *testing.T) {
	m := testMachine(newMemSubStore(), time.Now())

	// Completed with no pending payment in flight.
	_, err := m.Apply(context.Background(), "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentCompleted})
	var staleErr *apperrors.StaleEventError
	require.ErrorAs(t, err, &staleErr)
}

func TestApply_FailedReturnsToInactive(t *testing.T) {
	store := newMemSubStore()
	m := testMachine(store, time.Now())
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)

	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentFailed})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionInactive, sub.Status)

	// A retry with a fresh reference restarts the flow.
	sub, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-3", Outcome: domain.PaymentPending})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
}

func TestApply_ValidationErrors(t *testing.T) {
	m := testMachine(newMemSubStore(), time.Now())
	ctx := context.Background()

	var verr *apperrors.ValidationError

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Outcome: domain.PaymentPending})
	require.ErrorAs(t, err, &verr)

	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: "refunded"})
	require.ErrorAs(t, err, &verr)

	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentPending, Plan: "gold"})
	require.ErrorAs(t, err, &verr)
}

func TestApply_RejectedEventDoesNotBurnReference(t *testing.T) {
	store := newMemSubStore()
	m := testMachine(store, time.Now())
	ctx := context.Background()

	// Unknown plan fails validation before the dedupe record is written.
	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "gold"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)

	// The corrected retry reuses the same reference.
	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
	assert.Equal(t, "starter", sub.Plan)
}

func TestPlans_SortedByName(t *testing.T) {
	m := testMachine(newMemSubStore(), time.Now())

	plans := m.Plans()
	require.Len(t, plans, 3)
	for i := 1; i < len(plans); i++ {
		assert.Less(t, plans[i-1].Name, plans[i].Name)
	}
}

func TestStatus_LazyExpiry(t *testing.T) {
	store := newMemSubStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testMachine(store, start)
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)
	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentCompleted})
	require.NoError(t, err)

	// 31 days later the starter plan (30 days) has lapsed.
	m.WithClock(func() time.Time { return start.Add(31 * 24 * time.Hour) })
	sub, err := m.Status(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionExpired, sub.Status)
	assert.Zero(t, sub.DaysRemaining(start.Add(31*24*time.Hour)))

	// Stored status is untouched until the next transition.
	assert.Equal(t, domain.SubscriptionActive, store.subs["acct-1"].Status)
}

func TestApply_RenewalAfterExpiry(t *testing.T) {
	store := newMemSubStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testMachine(store, start)
	ctx := context.Background()

	_, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-1", Outcome: domain.PaymentPending, Plan: "starter"})
	require.NoError(t, err)
	_, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-2", Outcome: domain.PaymentCompleted})
	require.NoError(t, err)

	later := start.Add(40 * 24 * time.Hour)
	m.WithClock(func() time.Time { return later })

	sub, err := m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-3", Outcome: domain.PaymentPending, Plan: "annual"})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
	assert.Equal(t, "annual", sub.Plan)

	sub, err = m.Apply(ctx, "acct-1", domain.PaymentEvent{Reference: "ref-4", Outcome: domain.PaymentCompleted})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Equal(t, later.Add(365*24*time.Hour), *sub.ExpiresAt)
}

func TestEvaluateStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.Equal(t, domain.SubscriptionExpired, EvaluateStatus(domain.SubscriptionActive, &past, now))
	assert.Equal(t, domain.SubscriptionActive, EvaluateStatus(domain.SubscriptionActive, &future, now))
	assert.Equal(t, domain.SubscriptionExpired, EvaluateStatus(domain.SubscriptionActive, &now, now))
	assert.Equal(t, domain.SubscriptionPending, EvaluateStatus(domain.SubscriptionPending, nil, now))
}
