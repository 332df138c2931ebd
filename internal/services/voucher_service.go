// Package services composes the domain packages into the operations the HTTP
// transport exposes, adding metrics and event broadcasting around the core
// logic.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"hotspotcli/internal/exporter"
	"hotspotcli/internal/infrastructure"
	"hotspotcli/internal/voucher"
	ws "hotspotcli/internal/websocket"
	"hotspotcli/pkg/contracts/domain"
)

// ExportFormat selects the voucher listing download format
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat maps a query value to an export format, defaulting to csv
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "", string(ExportCSV):
		return ExportCSV, nil
	case string(ExportXLSX):
		return ExportXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// VoucherService exposes voucher lifecycle operations to the transport layer
type VoucherService struct {
	ledger   *voucher.Ledger
	exporter *exporter.VoucherExporter
	hub      *ws.Hub
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewVoucherService creates a voucher service
func NewVoucherService(ledger *voucher.Ledger, exp *exporter.VoucherExporter, hub *ws.Hub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *VoucherService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoucherService{
		ledger:   ledger,
		exporter: exp,
		hub:      hub,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "voucher")),
	}
}

// CreateBatch creates a voucher batch and broadcasts the creation event
func (s *VoucherService) CreateBatch(ctx context.Context, req *domain.BatchGenerationRequest) (*domain.BatchResult, error) {
	start := time.Now()

	result, err := s.ledger.CreateBatch(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SystemErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", "create_batch"),
			))
		}
		return nil, err
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("kind", string(req.Kind)))
		s.metrics.VoucherBatchesTotal.Add(ctx, 1, attrs)
		s.metrics.VouchersCreatedTotal.Add(ctx, int64(len(result.Created)), attrs)
		s.metrics.BatchCreateDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.TypeBatchCreated, map[string]interface{}{
			"account_id": req.AccountID,
			"batch_name": result.BatchName,
			"kind":       string(req.Kind),
			"quantity":   len(result.Created),
		})
	}

	return result, nil
}

// Get returns one voucher with recomputed status
func (s *VoucherService) Get(ctx context.Context, id string) (*domain.Voucher, error) {
	return s.ledger.Get(ctx, id)
}

// List returns vouchers matching the filter with recomputed statuses
func (s *VoucherService) List(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, error) {
	return s.ledger.List(ctx, filter)
}

// RecordUsage applies a usage sample and broadcasts the update
func (s *VoucherService) RecordUsage(ctx context.Context, id string, usedMB int64) (*domain.Voucher, error) {
	v, err := s.ledger.RecordUsage(ctx, id, usedMB)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VoucherUsageRecords.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(v.Kind)),
		))
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ws.TypeVoucherUsage, map[string]interface{}{
			"voucher_id":   v.ID,
			"status":       string(v.Status),
			"data_used_mb": v.DataUsedMB,
		})
	}
	return v, nil
}

// Delete tombstones one voucher
func (s *VoucherService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.VouchersDeletedTotal.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ws.TypeVoucherDeleted, map[string]interface{}{
			"voucher_ids": []string{id},
		})
	}
	return nil
}

// DeleteMany tombstones a set of vouchers with per-item outcomes
func (s *VoucherService) DeleteMany(ctx context.Context, ids []string) *domain.DeleteResult {
	result := s.ledger.DeleteMany(ctx, ids)

	if s.metrics != nil && len(result.Deleted) > 0 {
		s.metrics.VouchersDeletedTotal.Add(ctx, int64(len(result.Deleted)))
	}
	if s.hub != nil && len(result.Deleted) > 0 {
		s.hub.BroadcastEvent(ws.TypeVoucherDeleted, map[string]interface{}{
			"voucher_ids": result.Deleted,
		})
	}
	return result
}

// SweepExpired runs one expiry sweep pass, recording and broadcasting the
// transition count. Wired as the sweeper callback in cmd/web.
func (s *VoucherService) SweepExpired(ctx context.Context) ([]string, error) {
	ids, err := s.ledger.SweepExpired(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	if s.metrics != nil {
		s.metrics.VouchersExpiredTotal.Add(ctx, int64(len(ids)))
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ws.TypeVoucherExpired, map[string]interface{}{
			"voucher_ids": ids,
			"count":       len(ids),
		})
	}
	return ids, nil
}

// Export writes the filtered voucher listing to w in the requested format
func (s *VoucherService) Export(ctx context.Context, w io.Writer, filter domain.VoucherFilter, format ExportFormat) error {
	vouchers, err := s.ledger.List(ctx, filter)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "exporting voucher listing",
		slog.String("format", string(format)),
		slog.Int("count", len(vouchers)),
	)

	switch format {
	case ExportXLSX:
		return s.exporter.WriteXLSX(w, vouchers)
	default:
		return s.exporter.WriteCSV(w, vouchers)
	}
}
