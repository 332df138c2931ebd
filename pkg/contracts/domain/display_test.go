package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{30, "1 minute"},
		{60, "1 minute"},
		{900, "15 minutes"},
		{3600, "1 hour"},
		{7200, "2 hours"},
		{86400, "1 day"},
		{3 * 86400, "3 days"},
		{7 * 86400, "1 week"},
		{14 * 86400, "2 weeks"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFormatRateLimit(t *testing.T) {
	assert.Equal(t, "10M/5M", FormatRateLimit(10, 5))
	assert.Equal(t, "2M/1M", FormatRateLimit(2, 1))
}

func TestFormatDataMB(t *testing.T) {
	assert.Equal(t, "500MB", FormatDataMB(500))
	assert.Equal(t, "1GB", FormatDataMB(1024))
	assert.Equal(t, "1500MB", FormatDataMB(1500))
	assert.Equal(t, "5GB", FormatDataMB(5120))
}

func TestVoucher_EntitlementDisplay(t *testing.T) {
	timeVoucher := Voucher{Kind: VoucherKindTime, DurationSeconds: 7200}
	assert.Equal(t, "2 hours", timeVoucher.EntitlementDisplay())

	dataVoucher := Voucher{Kind: VoucherKindData, DataLimitMB: 2048}
	assert.Equal(t, "2GB", dataVoucher.EntitlementDisplay())
}

func TestVoucher_ExpiresAt(t *testing.T) {
	activated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	v := Voucher{Kind: VoucherKindTime, DurationSeconds: 3600, ActivatedAt: &activated}
	expires, ok := v.ExpiresAt()
	assert.True(t, ok)
	assert.Equal(t, activated.Add(time.Hour), expires)

	_, ok = (&Voucher{Kind: VoucherKindTime, DurationSeconds: 3600}).ExpiresAt()
	assert.False(t, ok, "unactivated vouchers carry no expiry instant")

	_, ok = (&Voucher{Kind: VoucherKindData, DataLimitMB: 100, ActivatedAt: &activated}).ExpiresAt()
	assert.False(t, ok, "data vouchers do not expire on time")
}

func TestVoucher_RemainingDataMB(t *testing.T) {
	v := Voucher{Kind: VoucherKindData, DataLimitMB: 1024, DataUsedMB: 200}
	assert.Equal(t, int64(824), v.RemainingDataMB())

	over := Voucher{Kind: VoucherKindData, DataLimitMB: 100, DataUsedMB: 150}
	assert.Equal(t, int64(0), over.RemainingDataMB(), "overshoot never goes negative")

	timeVoucher := Voucher{Kind: VoucherKindTime, DurationSeconds: 3600}
	assert.Equal(t, int64(0), timeVoucher.RemainingDataMB())
}
