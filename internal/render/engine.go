// Package render turns configuration templates into router-ready documents.
// Rendering is a pure function over its inputs: the same template, model,
// profile and parameters always produce a byte-identical body, which keeps
// re-renders cacheable and audit-stable.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotspotcli/internal/bandwidth"
	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

// placeholderPattern matches {{snake_case}} placeholders in template bodies
var placeholderPattern = regexp.MustCompile(`\{\{([a-z0-9_]+)\}\}`)

// Engine renders device configuration documents from templates
type Engine struct {
	catalog *bandwidth.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a render engine backed by the given profile catalog
func NewEngine(catalog *bandwidth.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "render_engine")),
		now:     time.Now,
	}
}

// WithClock overrides the engine clock, used by tests. GeneratedAt is audit
// metadata only and never part of the rendered body.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Render produces a RenderedConfig from the template, model, profile and
// voucher parameters, or fails with a RenderError carrying every failing
// field. Compatibility warnings from the profile catalog are propagated as
// non-fatal annotations on the result rather than failing the render.
func (e *Engine) Render(ctx context.Context, tmpl *domain.ConfigTemplate, model domain.DeviceModel, profileName string, params domain.VoucherParams) (*domain.RenderedConfig, error) {
	if !tmpl.IsModelAgnostic() && tmpl.DeviceModel != model {
		return nil, &apperrors.RenderError{
			Reason: "incompatible_model",
			Fields: []apperrors.FieldError{{
				Field:   "model",
				Message: fmt.Sprintf("template %s targets %s, not %s", tmpl.ID, tmpl.DeviceModel, model),
			}},
		}
	}

	resolution, err := e.catalog.Resolve(model, profileName)
	if err != nil {
		return nil, err
	}

	if err := validateNetworkParams(params); err != nil {
		return nil, err
	}

	body, warnings := e.substitute(tmpl.Body, resolution.Profile, params)

	if resolution.Warning != nil {
		warnings = append(warnings, domain.RenderWarning{
			Code:    "rate_exceeds_ceiling",
			Field:   resolution.Warning.Field,
			Message: resolution.Warning.Message,
		})
	}

	e.logger.DebugContext(ctx, "configuration rendered",
		slog.String("template_id", tmpl.ID),
		slog.String("model", string(model)),
		slog.String("profile", profileName),
		slog.Int("warnings", len(warnings)),
	)

	return &domain.RenderedConfig{
		ID:               uuid.NewString(),
		SourceTemplateID: tmpl.ID,
		DeviceModel:      model,
		ProfileName:      profileName,
		Params:           params,
		Body:             body,
		Warnings:         warnings,
		GeneratedAt:      e.now().UTC(),
	}, nil
}

// validateNetworkParams checks every address-valued parameter and reports all
// invalid fields at once, so the caller can surface every problem together.
func validateNetworkParams(params domain.VoucherParams) error {
	renderErr := &apperrors.RenderError{Reason: "invalid_network_param"}

	if params.Gateway != "" && net.ParseIP(params.Gateway) == nil {
		renderErr.Fields = append(renderErr.Fields, apperrors.FieldError{
			Field:   "gateway",
			Message: fmt.Sprintf("%q is not a valid IPv4 or IPv6 address", params.Gateway),
		})
	}
	if params.DNSServer != "" {
		// Multiple DNS servers are comma separated, RouterOS style.
		for _, addr := range strings.Split(params.DNSServer, ",") {
			addr = strings.TrimSpace(addr)
			if net.ParseIP(addr) == nil {
				renderErr.Fields = append(renderErr.Fields, apperrors.FieldError{
					Field:   "dns_server",
					Message: fmt.Sprintf("%q is not a valid IPv4 or IPv6 address", addr),
				})
			}
		}
	}

	if len(renderErr.Fields) > 0 {
		return renderErr
	}
	return nil
}

// substitute replaces every recognized placeholder with its value.
// Unrecognized placeholders are left verbatim and reported as warnings,
// never silently dropped: a silent drop would produce a configuration that
// looks valid but omits intended content.
func (e *Engine) substitute(body string, profile domain.BandwidthProfile, params domain.VoucherParams) (string, []domain.RenderWarning) {
	values := map[string]string{
		"hotspot_name":   params.HotspotName,
		"gateway":        params.Gateway,
		"dns_server":     params.DNSServer,
		"price":          params.Price,
		"entitlement":    params.Entitlement,
		"custom_message": params.CustomMessage,
		"rate_limit":     profile.RateLimit(),
		"profile_name":   profile.Name,
		"download_rate":  fmt.Sprintf("%dM", profile.DownloadMbps),
		"upload_rate":    fmt.Sprintf("%dM", profile.UploadMbps),
		"max_users":      strconv.Itoa(params.MaxUsers),
	}

	var warnings []domain.RenderWarning
	seen := make(map[string]bool)

	result := placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := values[name]; ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			warnings = append(warnings, domain.RenderWarning{
				Code:    "unknown_placeholder",
				Field:   name,
				Message: fmt.Sprintf("placeholder {{%s}} is not recognized and was left verbatim", name),
			})
		}
		return match
	})

	return result, warnings
}
