package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hotspotcli/pkg/contracts/domain"
)

func sampleVouchers() []domain.Voucher {
	activated := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	return []domain.Voucher{
		{
			Username:        "caf00001",
			Password:        "abc234",
			BatchName:       "weekend",
			Kind:            domain.VoucherKindTime,
			DurationSeconds: 7200,
			Price:           2.5,
			Status:          domain.VoucherStatusActive,
			CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ActivatedAt:     &activated,
		},
		{
			Username:    "caf00002",
			Password:    "xyz789",
			BatchName:   "weekend",
			Kind:        domain.VoucherKindData,
			DataLimitMB: 2048,
			DataUsedMB:  150,
			Price:       5,
			Status:      domain.VoucherStatusActive,
			CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	e := NewVoucherExporter(nil)

	require.NoError(t, e.WriteCSV(&buf, sampleVouchers()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "CSV must start with a UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, voucherHeaders, records[0])

	assert.Equal(t, "caf00001", records[1][0])
	assert.Equal(t, "2 hours", records[1][4])
	assert.Equal(t, "2.50", records[1][5])
	assert.Equal(t, "2026-03-01T13:00:00Z", records[1][8])

	assert.Equal(t, "2GB", records[2][4])
	assert.Equal(t, "", records[2][8], "unactivated voucher has no activation column")
	assert.Equal(t, "150", records[2][9])
}

func TestWriteCSV_EmptyListStillHasHeaders(t *testing.T) {
	var buf bytes.Buffer
	e := NewVoucherExporter(nil)

	require.NoError(t, e.WriteCSV(&buf, nil))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, voucherHeaders, records[0])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	e := NewVoucherExporter(nil)

	require.NoError(t, e.WriteXLSX(&buf, sampleVouchers()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Vouchers")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, voucherHeaders, rows[0])
	assert.Equal(t, "caf00001", rows[1][0])
	assert.Equal(t, "2GB", rows[2][4])
}
