package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "hotspotcli/internal/errors"
	renderengine "hotspotcli/internal/render"
	"hotspotcli/internal/services"
	"hotspotcli/pkg/contracts/domain"
)

// ConfigHandler handles configuration rendering HTTP requests
type ConfigHandler struct {
	service *services.ConfigService
	logger  *slog.Logger
}

// NewConfigHandler creates a config handler
func NewConfigHandler(service *services.ConfigService, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "config")),
	}
}

// Routes returns the config sub-router
func (h *ConfigHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/render", h.Render)
	r.Post("/preview", h.Preview)
	r.Get("/{id}/download", h.Download)

	return r
}

// RenderRequest is the wire form of a render or preview request
type RenderRequest struct {
	TemplateID string               `json:"template_id" validate:"required"`
	Model      string               `json:"model" validate:"required"`
	Profile    string               `json:"profile" validate:"required"`
	Params     domain.VoucherParams `json:"params"`
}

// Bind implements render.Binder
func (rr *RenderRequest) Bind(r *http.Request) error {
	return validate.Struct(rr)
}

// Render handles POST /api/configs/render
func (h *ConfigHandler) Render(w http.ResponseWriter, r *http.Request) {
	h.renderWith(w, r, "render", h.service.Render)
}

// Preview handles POST /api/configs/preview
func (h *ConfigHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.renderWith(w, r, "preview", h.service.Preview)
}

type renderFn func(ctx context.Context, templateID string, model domain.DeviceModel, profileName string, params domain.VoucherParams) (*domain.RenderedConfig, error)

// renderWith runs the shared bind-render-respond flow for render and preview
func (h *ConfigHandler) renderWith(w http.ResponseWriter, r *http.Request, op string, fn renderFn) {
	ctx, span := otel.Tracer("config-handler").Start(r.Context(), "config_handler."+op,
		trace.WithAttributes(attribute.String("operation", op)),
	)
	defer span.End()

	req := &RenderRequest{}
	if err := render.Bind(r, req); err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	cfg, err := fn(ctx, req.TemplateID, domain.DeviceModel(req.Model), req.Profile, req.Params)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			writeErr(w, r, apperrors.New(http.StatusNotFound, "NOT_FOUND", err.Error()))
			return
		}
		h.logger.WarnContext(ctx, "render failed",
			slog.String("operation", op),
			slog.String("template_id", req.TemplateID),
			slog.String("error", err.Error()),
		)
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	span.SetAttributes(attribute.Int("render.warnings", len(cfg.Warnings)))
	render.JSON(w, r, cfg)
}

// Download handles GET /api/configs/{id}/download
func (h *ConfigHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	form, err := renderengine.ParseOutputForm(r.URL.Query().Get("form"))
	if err != nil {
		writeErr(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	body, fileName, contentType, err := h.service.Download(ctx, id, form)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundSentinel) {
			writeErr(w, r, apperrors.NotFoundError("rendered configuration"))
			return
		}
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Write([]byte(body))
}

// TemplateHandler handles template catalog HTTP requests
type TemplateHandler struct {
	service *services.ConfigService
	logger  *slog.Logger
}

// NewTemplateHandler creates a template handler
func NewTemplateHandler(service *services.ConfigService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "template")),
	}
}

// Routes returns the template sub-router
func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List handles GET /api/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.Templates(r.Context())
	if err != nil {
		writeErr(w, r, apperrors.ToAPIError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

// ProfileHandler handles bandwidth profile HTTP requests
type ProfileHandler struct {
	service *services.ConfigService
	logger  *slog.Logger
}

// NewProfileHandler creates a profile handler
func NewProfileHandler(service *services.ConfigService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "profile")),
	}
}

// Routes returns the profile sub-router
func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List handles GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	model := domain.DeviceModel(r.URL.Query().Get("model"))
	listings := h.service.Profiles(r.Context(), model)
	render.JSON(w, r, map[string]interface{}{
		"profiles": listings,
		"count":    len(listings),
	})
}
