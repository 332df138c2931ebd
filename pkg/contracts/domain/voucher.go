// Package domain contains the core domain models for the hotspot voucher
// service. These types serve as the single source of truth for all layers.
package domain

import (
	"time"
)

// VoucherKind distinguishes time-entitled from data-entitled vouchers
type VoucherKind string

const (
	VoucherKindTime VoucherKind = "time"
	VoucherKindData VoucherKind = "data"
)

// Valid reports whether the kind is one of the known values
func (k VoucherKind) Valid() bool {
	return k == VoucherKindTime || k == VoucherKindData
}

// VoucherStatus represents the lifecycle state of a voucher
type VoucherStatus string

const (
	// VoucherStatusPending is a transient creation marker for partially
	// written batches; vouchers become active on successful persistence.
	VoucherStatusPending  VoucherStatus = "pending"
	VoucherStatusActive   VoucherStatus = "active"
	VoucherStatusConsumed VoucherStatus = "consumed"
	VoucherStatusExpired  VoucherStatus = "expired"
	// VoucherStatusDeleted is a terminal tombstone. The record is retained
	// for credential uniqueness but excluded from listings and usage.
	VoucherStatusDeleted VoucherStatus = "deleted"
)

// Voucher is a single sellable unit granting timed or data-limited network
// access via a credential pair. Owned exclusively by the voucher ledger.
type Voucher struct {
	ID        string      `json:"id" db:"id"`
	AccountID string      `json:"account_id" db:"account_id"`
	BatchName string      `json:"batch_name" db:"batch_name"`
	Kind      VoucherKind `json:"kind" db:"kind"`

	// Exactly one entitlement is set, matching Kind.
	DurationSeconds int64 `json:"duration_seconds,omitempty" db:"duration_seconds"`
	DataLimitMB     int64 `json:"data_limit_mb,omitempty" db:"data_limit_mb"`

	Price       float64 `json:"price" db:"price"`
	Description string  `json:"description,omitempty" db:"description"`

	Username string `json:"username" db:"username"`
	Password string `json:"password" db:"password"`

	Status      VoucherStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ActivatedAt *time.Time    `json:"activated_at,omitempty" db:"activated_at"`
	DataUsedMB  int64         `json:"data_used_mb" db:"data_used_mb"`
}

// ExpiresAt derives the expiry instant for time vouchers. Data voucher expiry
// is usage-driven, so the second return is false until activation or for
// data vouchers entirely.
func (v *Voucher) ExpiresAt() (time.Time, bool) {
	if v.Kind != VoucherKindTime || v.ActivatedAt == nil {
		return time.Time{}, false
	}
	return v.ActivatedAt.Add(time.Duration(v.DurationSeconds) * time.Second), true
}

// RemainingDataMB reports the unused data quota for data vouchers
func (v *Voucher) RemainingDataMB() int64 {
	if v.Kind != VoucherKindData {
		return 0
	}
	remaining := v.DataLimitMB - v.DataUsedMB
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EntitlementDisplay renders the entitlement in human readable form,
// e.g. "2 hours", "3 days", "5GB".
func (v *Voucher) EntitlementDisplay() string {
	switch v.Kind {
	case VoucherKindTime:
		return FormatDuration(v.DurationSeconds)
	case VoucherKindData:
		return FormatDataMB(v.DataLimitMB)
	}
	return "N/A"
}

// BatchGenerationRequest is the input contract to voucher batch creation.
// Not persisted beyond the call.
type BatchGenerationRequest struct {
	AccountID       string      `json:"account_id" validate:"required"`
	Name            string      `json:"name" validate:"required,max=200"`
	Kind            VoucherKind `json:"kind" validate:"required,oneof=time data"`
	DurationSeconds int64       `json:"duration_seconds,omitempty"`
	DataLimitMB     int64       `json:"data_limit_mb,omitempty"`
	Price           float64     `json:"price"`
	Quantity        int         `json:"quantity" validate:"required,min=1"`
	Description     string      `json:"description,omitempty" validate:"max=500"`
	UsernamePrefix  string      `json:"username_prefix,omitempty" validate:"max=10"`
}

// Entitlement returns whichever entitlement value matches the request kind
func (r *BatchGenerationRequest) Entitlement() int64 {
	if r.Kind == VoucherKindData {
		return r.DataLimitMB
	}
	return r.DurationSeconds
}

// BatchResult reports the outcome of an atomic batch creation
type BatchResult struct {
	BatchName string    `json:"batch_name"`
	Created   []Voucher `json:"created"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteResult reports per-item outcomes of a bulk delete. Deletion is not
// atomic across the batch; failures never abort siblings.
type DeleteResult struct {
	Deleted []string            `json:"deleted"`
	Failed  []DeleteItemFailure `json:"failed,omitempty"`
}

// DeleteItemFailure names a voucher that could not be deleted and why
type DeleteItemFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// VoucherFilter narrows voucher listings. Zero values match everything.
type VoucherFilter struct {
	AccountID string        `json:"account_id,omitempty"`
	Status    VoucherStatus `json:"status,omitempty"`
	Kind      VoucherKind   `json:"kind,omitempty"`
}
