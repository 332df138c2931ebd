// Package http contains the HTTP handlers. Each handler owns a sub-router
// returned from Routes() and translates between wire DTOs and the service
// layer.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/internal/services"
	"hotspotcli/pkg/contracts/domain"
)

var validate = validator.New()

// VoucherHandler handles voucher lifecycle HTTP requests
type VoucherHandler struct {
	service *services.VoucherService
	logger  *slog.Logger
}

// NewVoucherHandler creates a voucher handler
func NewVoucherHandler(service *services.VoucherService, logger *slog.Logger) *VoucherHandler {
	return &VoucherHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "voucher")),
	}
}

// Routes returns the voucher sub-router
func (h *VoucherHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/batch", h.CreateBatch)
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Post("/delete", h.DeleteMany)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/usage", h.RecordUsage)

	return r
}

// BatchCreateRequest is the wire form of a batch creation request
type BatchCreateRequest struct {
	domain.BatchGenerationRequest
}

// Bind implements render.Binder
func (b *BatchCreateRequest) Bind(r *http.Request) error {
	return validate.Struct(&b.BatchGenerationRequest)
}

// UsageRequest is the wire form of a usage sample
type UsageRequest struct {
	UsedMB int64 `json:"used_mb" validate:"min=0"`
}

// Bind implements render.Binder
func (u *UsageRequest) Bind(r *http.Request) error {
	return validate.Struct(u)
}

// BulkDeleteRequest names the vouchers to tombstone
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// Bind implements render.Binder
func (b *BulkDeleteRequest) Bind(r *http.Request) error {
	return validate.Struct(b)
}

// CreateBatch handles POST /api/vouchers/batch
func (h *VoucherHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("voucher-handler").Start(r.Context(), "voucher_handler.create_batch",
		trace.WithAttributes(attribute.String("http.route", "/api/vouchers/batch")),
	)
	defer span.End()
	start := time.Now()

	req := &BatchCreateRequest{}
	if err := render.Bind(r, req); err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.CreateBatch(ctx, &req.BatchGenerationRequest)
	if err != nil {
		span.RecordError(err)
		h.logger.ErrorContext(ctx, "batch creation failed",
			slog.String("account_id", req.AccountID),
			slog.String("error", err.Error()),
		)
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	span.SetAttributes(attribute.Int("vouchers.created", len(result.Created)))
	h.logger.InfoContext(ctx, "batch created",
		slog.String("batch_name", result.BatchName),
		slog.Int("quantity", len(result.Created)),
		slog.Duration("latency", time.Since(start)),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// List handles GET /api/vouchers
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := domain.VoucherFilter{
		AccountID: r.URL.Query().Get("account_id"),
		Status:    domain.VoucherStatus(r.URL.Query().Get("status")),
		Kind:      domain.VoucherKind(r.URL.Query().Get("kind")),
	}

	vouchers, err := h.service.List(ctx, filter)
	if err != nil {
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"vouchers": vouchers,
		"count":    len(vouchers),
	})
}

// Get handles GET /api/vouchers/{id}
func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	v, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			writeErr(w, r, apperrors.ErrVoucherNotFound)
			return
		}
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	resp := map[string]interface{}{
		"voucher":     v,
		"entitlement": v.EntitlementDisplay(),
	}
	if v.Kind == domain.VoucherKindData {
		resp["remaining_data_mb"] = v.RemainingDataMB()
	}
	if expiresAt, ok := v.ExpiresAt(); ok {
		resp["expires_at"] = expiresAt
	}
	render.JSON(w, r, resp)
}

// RecordUsage handles POST /api/vouchers/{id}/usage
func (h *VoucherHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	req := &UsageRequest{}
	if err := render.Bind(r, req); err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	v, err := h.service.RecordUsage(ctx, id, req.UsedMB)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			writeErr(w, r, apperrors.ErrVoucherNotFound)
			return
		}
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	render.JSON(w, r, v)
}

// Delete handles DELETE /api/vouchers/{id}
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			writeErr(w, r, apperrors.ErrVoucherNotFound)
			return
		}
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{"deleted": id})
}

// DeleteMany handles POST /api/vouchers/delete
func (h *VoucherHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &BulkDeleteRequest{}
	if err := render.Bind(r, req); err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	result := h.service.DeleteMany(ctx, req.IDs)
	render.JSON(w, r, result)
}

// Export handles GET /api/vouchers/export
func (h *VoucherHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	filter := domain.VoucherFilter{
		AccountID: r.URL.Query().Get("account_id"),
		Status:    domain.VoucherStatus(r.URL.Query().Get("status")),
		Kind:      domain.VoucherKind(r.URL.Query().Get("kind")),
	}

	fileName := fmt.Sprintf("vouchers-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	switch format {
	case services.ExportXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.service.Export(ctx, w, filter, format); err != nil {
		// Headers are already sent; log and cut the connection short.
		h.logger.ErrorContext(ctx, "export failed", slog.String("error", err.Error()))
	}
}

// writeErr renders a structured error response
func writeErr(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	render.Render(w, r, apperrors.NewErrorResponse(apiErr))
}
