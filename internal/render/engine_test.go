package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotspotcli/internal/bandwidth"
	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

func testEngine() *Engine {
	return NewEngine(bandwidth.DefaultCatalog(), nil)
}

func testTemplate(body string) *domain.ConfigTemplate {
	return &domain.ConfigTemplate{
		ID:           "tmpl-1",
		Name:         "test template",
		DeviceModel:  domain.ModelAgnostic,
		TemplateType: "hotspot",
		Body:         body,
	}
}

func testParams() domain.VoucherParams {
	return domain.VoucherParams{
		HotspotName: "Lakeside Cafe",
		Gateway:     "192.168.88.1",
		DNSServer:   "8.8.8.8",
		Price:       "2.50",
		Entitlement: "2 hours",
		MaxUsers:    1,
	}
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("welcome to {{hotspot_name}}, gateway {{gateway}}, rate {{rate_limit}}")

	cfg, err := e.Render(context.Background(), tmpl, "RB750", "premium", testParams())
	require.NoError(t, err)
	assert.Equal(t, "welcome to Lakeside Cafe, gateway 192.168.88.1, rate 10M/10M", cfg.Body)
	assert.Empty(t, cfg.Warnings)
}

func TestRender_Deterministic(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{hotspot_name}} {{rate_limit}} {{dns_server}} {{price}}")

	first, err := e.Render(context.Background(), tmpl, "RB750", "standard", testParams())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := e.Render(context.Background(), tmpl, "RB750", "standard", testParams())
		require.NoError(t, err)
		assert.Equal(t, first.Body, again.Body, "render must be byte-identical across runs")
	}
}

func TestRender_GeneratedAtIsMetadataOnly(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	tmpl := testTemplate("{{hotspot_name}}")

	e1 := NewEngine(bandwidth.DefaultCatalog(), nil).WithClock(func() time.Time { return t1 })
	e2 := NewEngine(bandwidth.DefaultCatalog(), nil).WithClock(func() time.Time { return t2 })

	a, err := e1.Render(context.Background(), tmpl, "RB750", "basic", testParams())
	require.NoError(t, err)
	b, err := e2.Render(context.Background(), tmpl, "RB750", "basic", testParams())
	require.NoError(t, err)

	assert.Equal(t, a.Body, b.Body, "clock must not leak into the body")
	assert.NotEqual(t, a.GeneratedAt, b.GeneratedAt)
}

func TestRender_UnknownPlaceholderLeftVerbatimAndWarned(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{hotspot_name}} and {{mystery_field}} and {{mystery_field}} again")

	cfg, err := e.Render(context.Background(), tmpl, "RB750", "basic", testParams())
	require.NoError(t, err)
	assert.Contains(t, cfg.Body, "{{mystery_field}}")
	require.Len(t, cfg.Warnings, 1, "repeat placeholders warn once")
	assert.Equal(t, "unknown_placeholder", cfg.Warnings[0].Code)
	assert.Equal(t, "mystery_field", cfg.Warnings[0].Field)
}

func TestRender_IncompatibleModelFails(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{hotspot_name}}")
	tmpl.DeviceModel = "RB4011"

	_, err := e.Render(context.Background(), tmpl, "RB750", "basic", testParams())
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "incompatible_model", renderErr.Reason)
}

func TestRender_ModelAgnosticTemplateRendersForAnyModel(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{hotspot_name}}")

	for _, model := range []domain.DeviceModel{"RB750", "RB4011", "SomethingNew"} {
		_, err := e.Render(context.Background(), tmpl, model, "basic", testParams())
		assert.NoError(t, err, "model %s", model)
	}
}

func TestRender_InvalidNetworkParamsAllReported(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{gateway}}")

	params := testParams()
	params.Gateway = "not-an-ip"
	params.DNSServer = "8.8.8.8, also-bad, 299.299.299.299"

	_, err := e.Render(context.Background(), tmpl, "RB750", "basic", params)
	var renderErr *apperrors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "invalid_network_param", renderErr.Reason)

	require.Len(t, renderErr.Fields, 3, "every invalid address is reported")
	assert.Equal(t, "gateway", renderErr.Fields[0].Field)
	assert.Equal(t, "dns_server", renderErr.Fields[1].Field)
	assert.Equal(t, "dns_server", renderErr.Fields[2].Field)
}

func TestRender_IPv6AddressesAccepted(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{gateway}}")

	params := testParams()
	params.Gateway = "fe80::1"
	params.DNSServer = "2001:4860:4860::8888"

	_, err := e.Render(context.Background(), tmpl, "RB750", "basic", params)
	assert.NoError(t, err)
}

func TestRender_CeilingWarningAttachedNonFatal(t *testing.T) {
	catalog := bandwidth.NewCatalog()
	catalog.SetCeiling(bandwidth.ModelCeiling{Model: "RB750", MaxMbps: 100})
	catalog.SetProfile(domain.BandwidthProfile{Name: "fiber", DownloadMbps: 500, UploadMbps: 100})
	e := NewEngine(catalog, nil)

	tmpl := testTemplate("{{rate_limit}}")
	cfg, err := e.Render(context.Background(), tmpl, "RB750", "fiber", testParams())
	require.NoError(t, err, "ceiling warning must not fail the render")
	assert.Equal(t, "500M/100M", cfg.Body)
	require.Len(t, cfg.Warnings, 1)
	assert.Equal(t, "rate_exceeds_ceiling", cfg.Warnings[0].Code)
}

func TestRender_UnknownProfileFails(t *testing.T) {
	e := testEngine()
	tmpl := testTemplate("{{rate_limit}}")

	_, err := e.Render(context.Background(), tmpl, "RB750", "nope", testParams())
	assert.ErrorIs(t, err, apperrors.ErrNotFoundSentinel)
}
