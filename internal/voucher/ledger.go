package voucher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/internal/credentials"
	"hotspotcli/pkg/contracts/domain"
)

// Store is the persistence contract the ledger requires. The batch insert is
// atomic: either every voucher in the slice is persisted or none are.
type Store interface {
	InsertVoucherBatch(ctx context.Context, vouchers []domain.Voucher) error
	GetVoucher(ctx context.Context, id string) (*domain.Voucher, error)
	ListVouchers(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, error)
	// TransitionVoucher moves a voucher to the target status only when its
	// stored status is one of from. Returns false when the guard fails.
	TransitionVoucher(ctx context.Context, id string, from []domain.VoucherStatus, to domain.VoucherStatus) (bool, error)
	// MarkActivated sets activated_at once; later calls are no-ops.
	MarkActivated(ctx context.Context, id string, at time.Time) error
	// AddUsage atomically accumulates data usage and returns the updated row.
	AddUsage(ctx context.Context, id string, usedMB int64) (*domain.Voucher, error)
	// ExpireDueTimeVouchers bulk-transitions active time vouchers whose
	// entitlement has elapsed, returning the affected ids.
	ExpireDueTimeVouchers(ctx context.Context, now time.Time) ([]string, error)
}

// Generator produces unique credential pairs for a batch
type Generator interface {
	GenerateBatch(ctx context.Context, accountID, prefix string, count int) ([]credentials.Credentials, error)
}

// Ledger owns voucher records and enforces the lifecycle state machine.
// No other component mutates vouchers.
type Ledger struct {
	store        Store
	generator    Generator
	maxBatchSize int
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the ledger clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a voucher ledger
func NewLedger(store Store, generator Generator, maxBatchSize int, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		store:        store,
		generator:    generator,
		maxBatchSize: maxBatchSize,
		logger:       logger.With(slog.String("component", "voucher_ledger")),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateBatch validates the request, reserves credentials and persists the
// batch atomically. Validation happens before any credential is reserved, so
// a validation failure has no side effects. Either all quantity vouchers are
// created or none are.
func (l *Ledger) CreateBatch(ctx context.Context, req *domain.BatchGenerationRequest) (*domain.BatchResult, error) {
	if err := l.validateBatchRequest(req); err != nil {
		return nil, err
	}

	pairs, err := l.generator.GenerateBatch(ctx, req.AccountID, req.UsernamePrefix, req.Quantity)
	if err != nil {
		return nil, err
	}

	createdAt := l.now()
	vouchers := make([]domain.Voucher, 0, req.Quantity)
	for _, pair := range pairs {
		vouchers = append(vouchers, domain.Voucher{
			ID:              uuid.NewString(),
			AccountID:       req.AccountID,
			BatchName:       req.Name,
			Kind:            req.Kind,
			DurationSeconds: req.DurationSeconds,
			DataLimitMB:     req.DataLimitMB,
			Price:           req.Price,
			Description:     req.Description,
			Username:        pair.Username,
			Password:        pair.Password,
			// Vouchers are usable the moment they exist; pending exists only
			// as a transient marker for partially written batches.
			Status:    domain.VoucherStatusActive,
			CreatedAt: createdAt,
		})
	}

	if err := l.store.InsertVoucherBatch(ctx, vouchers); err != nil {
		return nil, fmt.Errorf("failed to persist voucher batch: %w", err)
	}

	l.logger.InfoContext(ctx, "voucher batch created",
		slog.String("account_id", req.AccountID),
		slog.String("batch_name", req.Name),
		slog.String("kind", string(req.Kind)),
		slog.Int("quantity", req.Quantity),
	)

	return &domain.BatchResult{
		BatchName: req.Name,
		Created:   vouchers,
		CreatedAt: createdAt,
	}, nil
}

// validateBatchRequest collects every invalid field before returning
func (l *Ledger) validateBatchRequest(req *domain.BatchGenerationRequest) error {
	verr := &apperrors.ValidationError{}

	if req.AccountID == "" {
		verr.Add("account_id", "account_id is required")
	}
	if req.Name == "" {
		verr.Add("name", "name is required")
	}
	if !req.Kind.Valid() {
		verr.Add("kind", fmt.Sprintf("kind must be %q or %q", domain.VoucherKindTime, domain.VoucherKindData))
	}
	if req.Quantity < 1 || req.Quantity > l.maxBatchSize {
		verr.Add("quantity", fmt.Sprintf("quantity must be between 1 and %d", l.maxBatchSize))
	}
	if req.Price < 0 {
		verr.Add("price", "price must not be negative")
	}

	switch req.Kind {
	case domain.VoucherKindTime:
		if req.DurationSeconds <= 0 {
			verr.Add("duration_seconds", "time vouchers require a positive duration")
		}
		if req.DataLimitMB != 0 {
			verr.Add("data_limit_mb", "time vouchers must not carry a data limit")
		}
	case domain.VoucherKindData:
		if req.DataLimitMB <= 0 {
			verr.Add("data_limit_mb", "data vouchers require a positive data limit")
		}
		if req.DurationSeconds != 0 {
			verr.Add("duration_seconds", "data vouchers must not carry a duration")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Get returns a voucher with its status re-evaluated against the current
// clock, so status is always reported correctly even without a sweep. The
// status is snapshotted once; callers must not re-check mid-formatting.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.Voucher, error) {
	v, err := l.store.GetVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Status = EvaluateVoucher(v, l.now())
	return v, nil
}

// List returns vouchers matching the filter, statuses re-evaluated. Deleted
// vouchers are excluded unless explicitly requested. Status filtering happens
// after evaluation so lazily expired vouchers match correctly.
func (l *Ledger) List(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, error) {
	// Fetch without the status predicate; storage cannot evaluate time expiry.
	stored, err := l.store.ListVouchers(ctx, domain.VoucherFilter{
		AccountID: filter.AccountID,
		Kind:      filter.Kind,
	})
	if err != nil {
		return nil, err
	}

	now := l.now()
	result := make([]domain.Voucher, 0, len(stored))
	for _, v := range stored {
		v.Status = EvaluateVoucher(&v, now)
		if v.Status == domain.VoucherStatusDeleted && filter.Status != domain.VoucherStatusDeleted {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		result = append(result, v)
	}
	return result, nil
}

// RecordUsage applies a usage sample to a voucher. The first use activates
// the voucher: time vouchers start their countdown at that instant, data
// vouchers begin accumulating against their quota and transition to consumed
// once the quota is reached.
func (l *Ledger) RecordUsage(ctx context.Context, id string, usedMB int64) (*domain.Voucher, error) {
	if usedMB < 0 {
		return nil, apperrors.NewValidationError("used_mb", "usage must not be negative")
	}

	v, err := l.store.GetVoucher(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.now()
	if status := EvaluateVoucher(v, now); status != domain.VoucherStatusActive {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("voucher is %s, not active", status))
	}

	if v.ActivatedAt == nil {
		if err := l.store.MarkActivated(ctx, id, now); err != nil {
			return nil, fmt.Errorf("failed to activate voucher: %w", err)
		}
	}

	if v.Kind == domain.VoucherKindData && usedMB > 0 {
		updated, err := l.store.AddUsage(ctx, id, usedMB)
		if err != nil {
			return nil, fmt.Errorf("failed to record usage: %w", err)
		}
		if updated.DataUsedMB >= updated.DataLimitMB {
			if _, err := l.store.TransitionVoucher(ctx, id,
				[]domain.VoucherStatus{domain.VoucherStatusActive}, domain.VoucherStatusConsumed); err != nil {
				return nil, fmt.Errorf("failed to consume voucher: %w", err)
			}
			l.logger.InfoContext(ctx, "voucher consumed",
				slog.String("voucher_id", id),
				slog.Int64("data_used_mb", updated.DataUsedMB),
			)
		}
	}

	return l.Get(ctx, id)
}

// Expire applies the explicit administrative expiry override. Time vouchers
// expire on their own; this path exists for data vouchers that should stop
// being sellable.
func (l *Ledger) Expire(ctx context.Context, id string) error {
	ok, err := l.store.TransitionVoucher(ctx, id,
		[]domain.VoucherStatus{domain.VoucherStatusActive}, domain.VoucherStatusExpired)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewValidationError("status", "only active vouchers can be expired")
	}
	return nil
}

// Delete moves a voucher to the deleted tombstone. Terminal and irreversible;
// the record is retained for credential uniqueness but excluded from listing
// and usage operations.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	ok, err := l.store.TransitionVoucher(ctx, id, []domain.VoucherStatus{
		domain.VoucherStatusActive,
		domain.VoucherStatusConsumed,
		domain.VoucherStatusExpired,
	}, domain.VoucherStatusDeleted)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewValidationError("status", "voucher is already deleted or not deletable")
	}

	l.logger.InfoContext(ctx, "voucher deleted", slog.String("voucher_id", id))
	return nil
}

// DeleteMany applies the per-item delete rule to every id, reporting failures
// without aborting the rest. Unlike creation, deletion is not atomic.
func (l *Ledger) DeleteMany(ctx context.Context, ids []string) *domain.DeleteResult {
	result := &domain.DeleteResult{}
	for _, id := range ids {
		if err := l.Delete(ctx, id); err != nil {
			result.Failed = append(result.Failed, domain.DeleteItemFailure{
				ID:     id,
				Reason: err.Error(),
			})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}
	return result
}

// SweepExpired bulk-transitions due time vouchers to expired. The sweep and
// the lazy read path share the same expiry rule, so a voucher a reader
// already reported as expired is simply persisted as such here.
func (l *Ledger) SweepExpired(ctx context.Context) ([]string, error) {
	ids, err := l.store.ExpireDueTimeVouchers(ctx, l.now())
	if err != nil {
		return nil, fmt.Errorf("expiry sweep failed: %w", err)
	}
	if len(ids) > 0 {
		l.logger.InfoContext(ctx, "expiry sweep transitioned vouchers",
			slog.Int("count", len(ids)),
		)
	}
	return ids, nil
}
