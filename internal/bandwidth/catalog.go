// Package bandwidth maps named bandwidth profiles to rate-limit values and
// device-compatibility rules.
package bandwidth

import (
	"fmt"
	"sort"
	"sync"

	apperrors "hotspotcli/internal/errors"
	"hotspotcli/pkg/contracts/domain"
)

// ModelCeiling documents the maximum throughput a device model supports,
// in megabits per second.
type ModelCeiling struct {
	Model       domain.DeviceModel
	MaxMbps     int
	Description string
}

// Resolution is the result of resolving a profile for a model. The warning,
// when present, is non-fatal: operators are warned, not blocked, for unusual
// but possibly intentional combinations.
type Resolution struct {
	Profile domain.BandwidthProfile
	Warning *apperrors.CompatibilityWarning
}

// Catalog holds bandwidth profiles and model ceilings. Safe for concurrent
// use; resolution is read-only.
type Catalog struct {
	mu       sync.RWMutex
	profiles map[string]domain.BandwidthProfile
	ceilings map[domain.DeviceModel]ModelCeiling
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		profiles: make(map[string]domain.BandwidthProfile),
		ceilings: make(map[domain.DeviceModel]ModelCeiling),
	}
}

// DefaultCatalog returns a catalog seeded with the stock profiles and the
// documented ceilings for common MikroTik models.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	for _, ceiling := range []ModelCeiling{
		{Model: "RB750", MaxMbps: 100, Description: "hEX lite, fast ethernet"},
		{Model: "RB750Gr3", MaxMbps: 1000, Description: "hEX, gigabit"},
		{Model: "RB951", MaxMbps: 100, Description: "hAP series, fast ethernet"},
		{Model: "RB4011", MaxMbps: 1000, Description: "RB4011 series, gigabit"},
		{Model: "CCR1009", MaxMbps: 1000, Description: "Cloud Core Router"},
	} {
		c.SetCeiling(ceiling)
	}

	for _, p := range []domain.BandwidthProfile{
		{Name: "basic", DownloadMbps: 2, UploadMbps: 1},
		{Name: "standard", DownloadMbps: 5, UploadMbps: 2},
		{Name: "premium", DownloadMbps: 10, UploadMbps: 10},
		{Name: "business", DownloadMbps: 50, UploadMbps: 25},
		{Name: "unthrottled", DownloadMbps: 500, UploadMbps: 500, CompatibleModels: []domain.DeviceModel{"RB750Gr3", "RB4011", "CCR1009"}},
	} {
		c.SetProfile(p)
	}

	return c
}

// SetProfile adds or replaces a profile
func (c *Catalog) SetProfile(p domain.BandwidthProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.Name] = p
}

// SetCeiling adds or replaces a model ceiling
func (c *Catalog) SetCeiling(ceiling ModelCeiling) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ceilings[ceiling.Model] = ceiling
}

// Profiles returns all profiles sorted by name
func (c *Catalog) Profiles() []domain.BandwidthProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.BandwidthProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Resolve looks up the named profile and checks it against the model's
// documented ceiling. A rate above the ceiling yields a warning carrying the
// offending field and the ceiling, never a silent clamp and never a hard
// failure; the caller decides whether to proceed. An explicitly declared
// incompatible model also yields a warning.
func (c *Catalog) Resolve(model domain.DeviceModel, profileName string) (*Resolution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profile, ok := c.profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("bandwidth profile %q: %w", profileName, apperrors.ErrNotFoundSentinel)
	}

	res := &Resolution{Profile: profile}

	if len(profile.CompatibleModels) > 0 && !containsModel(profile.CompatibleModels, model) {
		res.Warning = &apperrors.CompatibilityWarning{
			Field:   "profile",
			Value:   profileName,
			Model:   string(model),
			Message: fmt.Sprintf("profile %q is not declared compatible with model %s", profileName, model),
		}
		return res, nil
	}

	ceiling, ok := c.ceilings[model]
	if !ok {
		return res, nil
	}

	if profile.DownloadMbps > ceiling.MaxMbps {
		res.Warning = &apperrors.CompatibilityWarning{
			Field:   "download_mbps",
			Value:   fmt.Sprintf("%dM", profile.DownloadMbps),
			Ceiling: fmt.Sprintf("%dM", ceiling.MaxMbps),
			Model:   string(model),
			Message: fmt.Sprintf("download rate %dM exceeds %s ceiling of %dM", profile.DownloadMbps, model, ceiling.MaxMbps),
		}
	} else if profile.UploadMbps > ceiling.MaxMbps {
		res.Warning = &apperrors.CompatibilityWarning{
			Field:   "upload_mbps",
			Value:   fmt.Sprintf("%dM", profile.UploadMbps),
			Ceiling: fmt.Sprintf("%dM", ceiling.MaxMbps),
			Model:   string(model),
			Message: fmt.Sprintf("upload rate %dM exceeds %s ceiling of %dM", profile.UploadMbps, model, ceiling.MaxMbps),
		}
	}

	return res, nil
}

func containsModel(models []domain.DeviceModel, model domain.DeviceModel) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}
