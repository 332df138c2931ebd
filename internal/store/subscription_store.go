package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hotspotcli/pkg/contracts/domain"
)

// GetSubscription returns the stored subscription for an account
func (s *Store) GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	var status string
	var expiresAt sql.NullTime

	err := s.db.Reader.QueryRowContext(ctx, `
		SELECT account_id, plan, status, expires_at, updated_at
		FROM subscriptions WHERE account_id = ?`,
		accountID,
	).Scan(&sub.AccountID, &sub.Plan, &status, &expiresAt, &sub.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "subscription", accountID)
	}

	sub.Status = domain.SubscriptionStatus(status)
	if expiresAt.Valid {
		at := expiresAt.Time
		sub.ExpiresAt = &at
	}
	return &sub, nil
}

// UpsertSubscription writes the account's subscription row
func (s *Store) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	var expiresAt interface{}
	if sub.ExpiresAt != nil {
		expiresAt = sub.ExpiresAt.UTC()
	}

	_, err := s.db.Writer.ExecContext(ctx, `
		INSERT INTO subscriptions (account_id, plan, status, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		sub.AccountID, sub.Plan, string(sub.Status), expiresAt, sub.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.AccountID, err)
	}
	return nil
}

// RecordPaymentEvent inserts the dedupe record for a payment event. One
// reference spans a payment attempt's whole life, so the key is the
// (reference, outcome) pair: the terminal callback reuses the attempt's
// reference while a replayed outcome is rejected. Returns false when the pair
// was already recorded; the composite primary key makes the check and the
// insert one atomic statement.
func (s *Store) RecordPaymentEvent(ctx context.Context, reference, accountID string, outcome domain.PaymentOutcome, at time.Time) (bool, error) {
	result, err := s.db.Writer.ExecContext(ctx, `
		INSERT OR IGNORE INTO payment_events (reference, account_id, outcome, applied_at)
		VALUES (?, ?, ?, ?)`,
		reference, accountID, string(outcome), at.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, fmt.Errorf("record payment event %s: %w", reference, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record payment event %s: %w", reference, err)
	}
	return affected > 0, nil
}
