package store

import (
	"context"
	"encoding/json"
	"fmt"

	"hotspotcli/pkg/contracts/domain"
)

// UpsertTemplate inserts or replaces a configuration template
func (s *Store) UpsertTemplate(ctx context.Context, tmpl *domain.ConfigTemplate) error {
	_, err := s.db.Writer.ExecContext(ctx, `
		INSERT INTO config_templates (id, name, device_model, template_type, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			device_model = excluded.device_model,
			template_type = excluded.template_type,
			body = excluded.body`,
		tmpl.ID, tmpl.Name, string(tmpl.DeviceModel), tmpl.TemplateType, tmpl.Body,
	)
	if err != nil {
		return fmt.Errorf("upsert template %s: %w", tmpl.ID, err)
	}
	return nil
}

// GetTemplate returns one template by id
func (s *Store) GetTemplate(ctx context.Context, id string) (*domain.ConfigTemplate, error) {
	var tmpl domain.ConfigTemplate
	var deviceModel string
	err := s.db.Reader.QueryRowContext(ctx,
		`SELECT id, name, device_model, template_type, body FROM config_templates WHERE id = ?`,
		id,
	).Scan(&tmpl.ID, &tmpl.Name, &deviceModel, &tmpl.TemplateType, &tmpl.Body)
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	tmpl.DeviceModel = domain.DeviceModel(deviceModel)
	return &tmpl, nil
}

// ListTemplates returns all templates ordered by name
func (s *Store) ListTemplates(ctx context.Context) ([]domain.ConfigTemplate, error) {
	rows, err := s.db.Reader.QueryContext(ctx,
		`SELECT id, name, device_model, template_type, body FROM config_templates ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.ConfigTemplate
	for rows.Next() {
		var tmpl domain.ConfigTemplate
		var deviceModel string
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &deviceModel, &tmpl.TemplateType, &tmpl.Body); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		tmpl.DeviceModel = domain.DeviceModel(deviceModel)
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

// SeedTemplates inserts the given templates only when missing, preserving any
// operator edits to existing rows.
func (s *Store) SeedTemplates(ctx context.Context, templates []domain.ConfigTemplate) error {
	for i := range templates {
		tmpl := &templates[i]
		_, err := s.db.Writer.ExecContext(ctx, `
			INSERT OR IGNORE INTO config_templates (id, name, device_model, template_type, body)
			VALUES (?, ?, ?, ?, ?)`,
			tmpl.ID, tmpl.Name, string(tmpl.DeviceModel), tmpl.TemplateType, tmpl.Body,
		)
		if err != nil {
			return fmt.Errorf("seed template %s: %w", tmpl.ID, err)
		}
	}
	return nil
}

// SaveRenderedConfig persists a rendered configuration for later download.
// Params and warnings are stored as JSON documents.
func (s *Store) SaveRenderedConfig(ctx context.Context, cfg *domain.RenderedConfig) error {
	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	warnings, err := json.Marshal(cfg.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = s.db.Writer.ExecContext(ctx, `
		INSERT INTO rendered_configs (id, source_template_id, device_model, profile_name, params, body, warnings, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.SourceTemplateID, string(cfg.DeviceModel), cfg.ProfileName,
		string(params), cfg.Body, string(warnings), cfg.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save rendered config %s: %w", cfg.ID, err)
	}
	return nil
}

// GetRenderedConfig returns one rendered configuration by id
func (s *Store) GetRenderedConfig(ctx context.Context, id string) (*domain.RenderedConfig, error) {
	var cfg domain.RenderedConfig
	var deviceModel, params, warnings string

	err := s.db.Reader.QueryRowContext(ctx, `
		SELECT id, source_template_id, device_model, profile_name, params, body, warnings, generated_at
		FROM rendered_configs WHERE id = ?`,
		id,
	).Scan(&cfg.ID, &cfg.SourceTemplateID, &deviceModel, &cfg.ProfileName,
		&params, &cfg.Body, &warnings, &cfg.GeneratedAt)
	if err != nil {
		return nil, notFound(err, "rendered config", id)
	}

	cfg.DeviceModel = domain.DeviceModel(deviceModel)
	if err := json.Unmarshal([]byte(params), &cfg.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(warnings), &cfg.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings for %s: %w", id, err)
	}
	return &cfg, nil
}
