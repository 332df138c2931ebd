package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotspotcli/internal/bandwidth"
	apperrors "hotspotcli/internal/errors"
	"hotspotcli/internal/render"
	"hotspotcli/pkg/contracts/domain"
)

// memConfigStore is an in-memory ConfigStore for service tests
type memConfigStore struct {
	mu        sync.Mutex
	templates map[string]domain.ConfigTemplate
	rendered  map[string]domain.RenderedConfig
}

func newMemConfigStore(templates ...domain.ConfigTemplate) *memConfigStore {
	s := &memConfigStore{
		templates: make(map[string]domain.ConfigTemplate),
		rendered:  make(map[string]domain.RenderedConfig),
	}
	for _, t := range templates {
		s.templates[t.ID] = t
	}
	return s
}

func (m *memConfigStore) GetTemplate(ctx context.Context, id string) (*domain.ConfigTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, apperrors.ErrNotFoundSentinel)
	}
	return &t, nil
}

func (m *memConfigStore) ListTemplates(ctx context.Context) ([]domain.ConfigTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ConfigTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memConfigStore) SaveRenderedConfig(ctx context.Context, cfg *domain.RenderedConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered[cfg.ID] = *cfg
	return nil
}

func (m *memConfigStore) GetRenderedConfig(ctx context.Context, id string) (*domain.RenderedConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.rendered[id]
	if !ok {
		return nil, fmt.Errorf("rendered config %s: %w", id, apperrors.ErrNotFoundSentinel)
	}
	return &cfg, nil
}

func testConfigService(store *memConfigStore) *ConfigService {
	catalog := bandwidth.DefaultCatalog()
	engine := render.NewEngine(catalog, nil)
	return NewConfigService(store, engine, catalog, nil, nil)
}

func hotspotTemplate() domain.ConfigTemplate {
	return domain.ConfigTemplate{
		ID:           "tmpl-1",
		Name:         "hotspot base",
		DeviceModel:  domain.ModelAgnostic,
		TemplateType: "hotspot",
		Body:         "hotspot {{hotspot_name}} rate {{rate_limit}}",
	}
}

func renderParams() domain.VoucherParams {
	return domain.VoucherParams{
		HotspotName: "Lakeside Cafe",
		Gateway:     "192.168.88.1",
		DNSServer:   "8.8.8.8",
	}
}

func TestRender_PersistsResult(t *testing.T) {
	store := newMemConfigStore(hotspotTemplate())
	svc := testConfigService(store)
	ctx := context.Background()

	cfg, err := svc.Render(ctx, "tmpl-1", "RB750", "basic", renderParams())
	require.NoError(t, err)
	assert.Equal(t, "hotspot Lakeside Cafe rate 2M/1M", cfg.Body)

	saved, err := store.GetRenderedConfig(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Body, saved.Body)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	store := newMemConfigStore(hotspotTemplate())
	svc := testConfigService(store)
	ctx := context.Background()

	cfg, err := svc.Preview(ctx, "tmpl-1", "RB750", "basic", renderParams())
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Body)
	assert.Empty(t, store.rendered, "preview must leave no trace in the store")
}

func TestPreview_MatchesRenderBody(t *testing.T) {
	store := newMemConfigStore(hotspotTemplate())
	svc := testConfigService(store)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, "tmpl-1", "RB750", "standard", renderParams())
	require.NoError(t, err)

	rendered, err := svc.Render(ctx, "tmpl-1", "RB750", "standard", renderParams())
	require.NoError(t, err)
	assert.Equal(t, preview.Body, rendered.Body)
}

func TestRender_UnknownTemplate(t *testing.T) {
	svc := testConfigService(newMemConfigStore())

	_, err := svc.Render(context.Background(), "missing", "RB750", "basic", renderParams())
	assert.ErrorIs(t, err, apperrors.ErrNotFoundSentinel)
}

func TestDownload(t *testing.T) {
	store := newMemConfigStore(hotspotTemplate())
	svc := testConfigService(store)
	ctx := context.Background()

	cfg, err := svc.Render(ctx, "tmpl-1", "RB750", "basic", renderParams())
	require.NoError(t, err)

	body, fileName, contentType, err := svc.Download(ctx, cfg.ID, render.FormScript)
	require.NoError(t, err)
	assert.Contains(t, body, cfg.Body)
	assert.Equal(t, "lakeside-cafe.rsc", fileName)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)

	_, _, _, err = svc.Download(ctx, "missing", render.FormScript)
	assert.ErrorIs(t, err, apperrors.ErrNotFoundSentinel)
}

func TestProfiles_AnnotatesForModel(t *testing.T) {
	svc := testConfigService(newMemConfigStore())

	listings := svc.Profiles(context.Background(), "RB750")
	require.NotEmpty(t, listings)

	byName := make(map[string]ProfileListing, len(listings))
	for _, l := range listings {
		byName[l.Profile.Name] = l
	}

	assert.Nil(t, byName["basic"].Warning)
	require.NotNil(t, byName["unthrottled"].Warning, "unthrottled exceeds the RB750 ceiling")
	assert.Contains(t, *byName["unthrottled"].Warning, "RB750")
}

func TestProfiles_NoModelNoWarnings(t *testing.T) {
	svc := testConfigService(newMemConfigStore())

	for _, l := range svc.Profiles(context.Background(), "") {
		assert.Nil(t, l.Warning, "profile %s", l.Profile.Name)
	}
}
