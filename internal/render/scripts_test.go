package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hotspotcli/pkg/contracts/domain"
)

func TestUserScript_TimeVoucher(t *testing.T) {
	v := &domain.Voucher{
		Username:        "hs00001",
		Password:        "abc234",
		Kind:            domain.VoucherKindTime,
		DurationSeconds: 7200,
	}

	script := UserScript(v, "standard")
	assert.Contains(t, script, `limit-uptime=7200s`)
	assert.Contains(t, script, `name="hs00001"`)
	assert.Contains(t, script, `profile="standard"`)
	assert.NotContains(t, script, "limit-bytes-total")
}

func TestUserScript_DataVoucher(t *testing.T) {
	v := &domain.Voucher{
		Username:    "hs00002",
		Password:    "xyz789",
		Kind:        domain.VoucherKindData,
		DataLimitMB: 1024,
	}

	script := UserScript(v, "basic")
	assert.Contains(t, script, "limit-bytes-total=1073741824")
	assert.NotContains(t, script, "limit-uptime")
}

func TestBatchUserScript(t *testing.T) {
	vouchers := []domain.Voucher{
		{Username: "hs00001", Password: "a", Kind: domain.VoucherKindTime, DurationSeconds: 60},
		{Username: "hs00002", Password: "b", Kind: domain.VoucherKindTime, DurationSeconds: 60},
	}

	script := BatchUserScript(vouchers, "basic")
	assert.Contains(t, script, "# Batch provisioning: 2 vouchers")
	assert.Contains(t, script, "hs00001")
	assert.Contains(t, script, "hs00002")
}

func TestCleanupScript(t *testing.T) {
	script := CleanupScript([]string{"hs00001", "hs00002"})
	assert.Contains(t, script, "# Remove 2 expired hotspot users")
	assert.Contains(t, script, `/ip hotspot user remove [find name="hs00001"]`)
	assert.Contains(t, script, `/ip hotspot user remove [find name="hs00002"]`)
}
