// Package exporter serializes voucher listings for download, as CSV for
// spreadsheet import or as a styled xlsx workbook.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"hotspotcli/pkg/contracts/domain"
)

// VoucherExporter writes voucher listings in downloadable formats
type VoucherExporter struct {
	logger *slog.Logger
}

// NewVoucherExporter creates a voucher exporter
func NewVoucherExporter(logger *slog.Logger) *VoucherExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoucherExporter{logger: logger.With(slog.String("component", "voucher_exporter"))}
}

// voucherHeaders is the shared column set for both formats
var voucherHeaders = []string{
	"Username", "Password", "Batch", "Kind", "Entitlement",
	"Price", "Status", "Created", "Activated", "Data Used (MB)",
}

// voucherRecord flattens one voucher into export columns
func voucherRecord(v *domain.Voucher) []string {
	activated := ""
	if v.ActivatedAt != nil {
		activated = v.ActivatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		v.Username,
		v.Password,
		v.BatchName,
		string(v.Kind),
		v.EntitlementDisplay(),
		strconv.FormatFloat(v.Price, 'f', 2, 64),
		string(v.Status),
		v.CreatedAt.UTC().Format(time.RFC3339),
		activated,
		strconv.FormatInt(v.DataUsedMB, 10),
	}
}

// WriteCSV streams the vouchers as CSV. A UTF-8 BOM is prepended so Excel
// opens the file with the right encoding.
func (e *VoucherExporter) WriteCSV(w io.Writer, vouchers []domain.Voucher) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(voucherHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := range vouchers {
		if err := writer.Write(voucherRecord(&vouchers[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()

	e.logger.Debug("voucher CSV written", slog.Int("record_count", len(vouchers)))
	return writer.Error()
}

// WriteXLSX streams the vouchers as an xlsx workbook with a bold header row
func (e *VoucherExporter) WriteXLSX(w io.Writer, vouchers []domain.Voucher) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Vouchers"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range voucherHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to map header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header %s: %w", header, err)
		}
	}

	for row := range vouchers {
		record := voucherRecord(&vouchers[row])
		for col, value := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to map cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("voucher workbook written", slog.Int("record_count", len(vouchers)))
	return nil
}
