package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hotspotcli/pkg/contracts/domain"
)

func TestEvaluate_TimeVoucherBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oneHour := int64(3600)

	tests := []struct {
		name string
		now  time.Time
		want domain.VoucherStatus
	}{
		{"one second before expiry", t0.Add(3599 * time.Second), domain.VoucherStatusActive},
		{"exactly at expiry", t0.Add(3600 * time.Second), domain.VoucherStatusExpired},
		{"one second after expiry", t0.Add(3601 * time.Second), domain.VoucherStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(domain.VoucherStatusActive, domain.VoucherKindTime, &t0, oneHour, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_UnactivatedTimeVoucherNeverExpires(t *testing.T) {
	farFuture := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Evaluate(domain.VoucherStatusActive, domain.VoucherKindTime, nil, 3600, farFuture)
	assert.Equal(t, domain.VoucherStatusActive, got)
}

func TestEvaluate_TerminalStatusesAreStable(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := t0.Add(48 * time.Hour)

	for _, status := range []domain.VoucherStatus{
		domain.VoucherStatusDeleted,
		domain.VoucherStatusConsumed,
		domain.VoucherStatusExpired,
	} {
		got := Evaluate(status, domain.VoucherKindTime, &t0, 60, later)
		assert.Equal(t, status, got, "status %s must not change", status)
	}
}

func TestEvaluate_DataVouchersDoNotExpireByTime(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Evaluate(domain.VoucherStatusActive, domain.VoucherKindData, &t0, 0, t0.Add(365*24*time.Hour))
	assert.Equal(t, domain.VoucherStatusActive, got)
}

func TestEvaluateVoucher_DataQuota(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		usedMB  int64
		limitMB int64
		want    domain.VoucherStatus
	}{
		{"below quota", 500, 1024, domain.VoucherStatusActive},
		{"exactly at quota", 1024, 1024, domain.VoucherStatusConsumed},
		{"over quota", 2000, 1024, domain.VoucherStatusConsumed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &domain.Voucher{
				Kind:        domain.VoucherKindData,
				Status:      domain.VoucherStatusActive,
				DataLimitMB: tt.limitMB,
				DataUsedMB:  tt.usedMB,
			}
			assert.Equal(t, tt.want, EvaluateVoucher(v, now))
		})
	}
}
