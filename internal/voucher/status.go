// Package voucher owns voucher records and enforces the lifecycle state
// machine. All status reads flow through Evaluate so the lazy read path and
// the background sweep can never disagree.
package voucher

import (
	"time"

	"hotspotcli/pkg/contracts/domain"
)

// Evaluate computes the effective status of a voucher from stored fields and
// the current clock. It is a pure function: both the read path and the sweep
// call it, and failures are reproducible from stored state alone.
//
// Rules:
//   - deleted, consumed and expired are terminal for evaluation purposes
//   - time vouchers expire once now >= activatedAt + entitlement
//   - data vouchers consume once usage reaches the quota; they never expire
//     by time (only via explicit administrative override)
//   - pending is a transient creation marker and reports as-is
func Evaluate(stored domain.VoucherStatus, kind domain.VoucherKind, activatedAt *time.Time, durationSeconds int64, now time.Time) domain.VoucherStatus {
	switch stored {
	case domain.VoucherStatusDeleted, domain.VoucherStatusConsumed, domain.VoucherStatusExpired:
		return stored
	case domain.VoucherStatusPending:
		return stored
	}

	if kind == domain.VoucherKindTime && activatedAt != nil {
		expiry := activatedAt.Add(time.Duration(durationSeconds) * time.Second)
		if !now.Before(expiry) {
			return domain.VoucherStatusExpired
		}
	}

	return stored
}

// EvaluateVoucher applies Evaluate to a voucher record, additionally handling
// the data-quota consumption rule, and returns the effective status without
// mutating the record.
func EvaluateVoucher(v *domain.Voucher, now time.Time) domain.VoucherStatus {
	status := Evaluate(v.Status, v.Kind, v.ActivatedAt, v.DurationSeconds, now)
	if status == domain.VoucherStatusActive && v.Kind == domain.VoucherKindData && v.DataUsedMB >= v.DataLimitMB {
		return domain.VoucherStatusConsumed
	}
	return status
}
