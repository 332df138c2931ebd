package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"hotspotcli/internal/bandwidth"
	"hotspotcli/internal/infrastructure"
	"hotspotcli/internal/render"
	"hotspotcli/pkg/contracts/domain"
)

// ConfigStore is the persistence contract the config service requires
type ConfigStore interface {
	GetTemplate(ctx context.Context, id string) (*domain.ConfigTemplate, error)
	ListTemplates(ctx context.Context) ([]domain.ConfigTemplate, error)
	SaveRenderedConfig(ctx context.Context, cfg *domain.RenderedConfig) error
	GetRenderedConfig(ctx context.Context, id string) (*domain.RenderedConfig, error)
}

// ConfigService exposes template rendering, preview and download operations
type ConfigService struct {
	store   ConfigStore
	engine  *render.Engine
	catalog *bandwidth.Catalog
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewConfigService creates a config service
func NewConfigService(store ConfigStore, engine *render.Engine, catalog *bandwidth.Catalog, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigService{
		store:   store,
		engine:  engine,
		catalog: catalog,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "config")),
	}
}

// Render renders a configuration and persists it for later download
func (s *ConfigService) Render(ctx context.Context, templateID string, model domain.DeviceModel, profileName string, params domain.VoucherParams) (*domain.RenderedConfig, error) {
	cfg, err := s.render(ctx, templateID, model, profileName, params)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveRenderedConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "configuration rendered and saved",
		slog.String("config_id", cfg.ID),
		slog.String("template_id", templateID),
		slog.String("model", string(model)),
	)
	return cfg, nil
}

// Preview renders a configuration without persisting anything. The body is
// byte-identical to what Render would produce for the same inputs.
func (s *ConfigService) Preview(ctx context.Context, templateID string, model domain.DeviceModel, profileName string, params domain.VoucherParams) (*domain.RenderedConfig, error) {
	return s.render(ctx, templateID, model, profileName, params)
}

// render is the shared template-fetch plus engine call with metrics
func (s *ConfigService) render(ctx context.Context, templateID string, model domain.DeviceModel, profileName string, params domain.VoucherParams) (*domain.RenderedConfig, error) {
	start := time.Now()

	tmpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.engine.Render(ctx, tmpl, model, profileName, params)

	if s.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("model", string(model)),
			attribute.String("profile", profileName),
		)
		s.metrics.ConfigRenderDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			s.metrics.ConfigRenderFailures.Add(ctx, 1, attrs)
		} else {
			s.metrics.ConfigRendersTotal.Add(ctx, 1, attrs)
		}
	}

	return cfg, err
}

// Download returns the serialized document, its file name and content type
// for a previously rendered configuration.
func (s *ConfigService) Download(ctx context.Context, id string, form render.OutputForm) (body, fileName, contentType string, err error) {
	cfg, err := s.store.GetRenderedConfig(ctx, id)
	if err != nil {
		return "", "", "", err
	}

	body = render.Serialize(cfg, form)
	fileName = render.FileName(cfg, form)
	contentType = "text/plain; charset=utf-8"
	return body, fileName, contentType, nil
}

// Templates returns the template catalog
func (s *ConfigService) Templates(ctx context.Context) ([]domain.ConfigTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// ProfileListing is one bandwidth profile with its compatibility annotation
// for a requested model.
type ProfileListing struct {
	Profile domain.BandwidthProfile `json:"profile"`
	Warning *string                 `json:"warning,omitempty"`
}

// Profiles lists bandwidth profiles. When a model is given, each profile is
// resolved against it and any compatibility warning is attached.
func (s *ConfigService) Profiles(ctx context.Context, model domain.DeviceModel) []ProfileListing {
	profiles := s.catalog.Profiles()
	listings := make([]ProfileListing, 0, len(profiles))

	for _, p := range profiles {
		listing := ProfileListing{Profile: p}
		if model != "" {
			if res, err := s.catalog.Resolve(model, p.Name); err == nil && res.Warning != nil {
				msg := res.Warning.Message
				listing.Warning = &msg
			}
		}
		listings = append(listings, listing)
	}
	return listings
}
