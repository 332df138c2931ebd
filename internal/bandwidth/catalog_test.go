package bandwidth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

func TestResolve_UnknownProfile(t *testing.T) {
	c := DefaultCatalog()
	_, err := c.Resolve("RB750", "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFoundSentinel))
}

func TestResolve_WithinCeilingNoWarning(t *testing.T) {
	c := DefaultCatalog()
	res, err := c.Resolve("RB750", "basic")
	require.NoError(t, err)
	assert.Nil(t, res.Warning)
	assert.Equal(t, "2M/1M", res.Profile.RateLimit())
}

func TestResolve_RateAboveCeilingWarnsButSucceeds(t *testing.T) {
	c := NewCatalog()
	c.SetCeiling(ModelCeiling{Model: "RB750", MaxMbps: 100})
	c.SetProfile(domain.BandwidthProfile{Name: "fiber", DownloadMbps: 500, UploadMbps: 50})

	res, err := c.Resolve("RB750", "fiber")
	require.NoError(t, err, "ceiling breach is a warning, never an error")
	require.NotNil(t, res.Warning)
	assert.Equal(t, "download_mbps", res.Warning.Field)
	assert.Equal(t, "500M", res.Warning.Value)
	assert.Equal(t, "100M", res.Warning.Ceiling)
	assert.Equal(t, "RB750", res.Warning.Model)
}

func TestResolve_UploadAboveCeiling(t *testing.T) {
	c := NewCatalog()
	c.SetCeiling(ModelCeiling{Model: "RB951", MaxMbps: 100})
	c.SetProfile(domain.BandwidthProfile{Name: "upstream", DownloadMbps: 50, UploadMbps: 200})

	res, err := c.Resolve("RB951", "upstream")
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "upload_mbps", res.Warning.Field)
}

func TestResolve_IncompatibleModelWarns(t *testing.T) {
	c := DefaultCatalog()

	res, err := c.Resolve("RB750", "unthrottled")
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "profile", res.Warning.Field)
	assert.Equal(t, "RB750", res.Warning.Model)
}

func TestResolve_UnknownModelHasNoCeiling(t *testing.T) {
	c := DefaultCatalog()
	res, err := c.Resolve("FutureRouter9000", "business")
	require.NoError(t, err)
	assert.Nil(t, res.Warning, "models without documented ceilings resolve cleanly")
}

func TestRateLimitToken(t *testing.T) {
	p := domain.BandwidthProfile{Name: "premium", DownloadMbps: 10, UploadMbps: 10}
	assert.Equal(t, "10M/10M", p.RateLimit())
}

func TestProfiles_SortedByName(t *testing.T) {
	c := DefaultCatalog()
	profiles := c.Profiles()
	require.NotEmpty(t, profiles)
	for i := 1; i < len(profiles); i++ {
		assert.LessOrEqual(t, profiles[i-1].Name, profiles[i].Name)
	}
}
