package domain

import (
	"time"
)

// DeviceModel identifies a router hardware model, e.g. "RB750"
type DeviceModel string

// ModelAgnostic marks a template usable with any device model
const ModelAgnostic DeviceModel = "any"

// ConfigTemplate is a parameterized device-configuration document with
// placeholders substituted at render time. Owned by the administrative
// catalog; the render engine treats it as read-only input.
type ConfigTemplate struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	DeviceModel  DeviceModel `json:"device_model" db:"device_model"`
	TemplateType string      `json:"template_type" db:"template_type"` // hotspot|user-script|cleanup
	Body         string      `json:"body" db:"body"`
}

// IsModelAgnostic reports whether the template may render for any model
func (t *ConfigTemplate) IsModelAgnostic() bool {
	return t.DeviceModel == ModelAgnostic || t.DeviceModel == ""
}

// BandwidthProfile is a named upload/download rate-limit pair, optionally
// restricted to compatible device models. Rates are whole megabits.
type BandwidthProfile struct {
	Name             string        `json:"name"`
	UploadMbps       int           `json:"upload_mbps"`
	DownloadMbps     int           `json:"download_mbps"`
	CompatibleModels []DeviceModel `json:"compatible_models,omitempty"`
}

// RateLimit returns the device-native rate-limit encoding, e.g. "10M/5M"
// (download first, then upload).
func (p *BandwidthProfile) RateLimit() string {
	return FormatRateLimit(p.DownloadMbps, p.UploadMbps)
}

// VoucherParams carries the render-time substitution values
type VoucherParams struct {
	HotspotName   string `json:"hotspot_name" validate:"required,max=100"`
	Gateway       string `json:"gateway" validate:"required"`
	DNSServer     string `json:"dns_server" validate:"required"`
	Price         string `json:"price,omitempty"`
	Entitlement   string `json:"entitlement,omitempty"` // duration or data limit display
	CustomMessage string `json:"custom_message,omitempty" validate:"max=500"`
	MaxUsers      int    `json:"max_users,omitempty"`
}

// RenderedConfig is the immutable product of a render. Re-rendering with the
// same inputs is byte-identical; GeneratedAt is audit metadata only and never
// appears in Body.
type RenderedConfig struct {
	ID               string           `json:"id" db:"id"`
	SourceTemplateID string           `json:"source_template_id" db:"source_template_id"`
	DeviceModel      DeviceModel      `json:"device_model" db:"device_model"`
	ProfileName      string           `json:"profile_name" db:"profile_name"`
	Params           VoucherParams    `json:"params"`
	Body             string           `json:"body" db:"body"`
	Warnings         []RenderWarning  `json:"warnings,omitempty"`
	GeneratedAt      time.Time        `json:"generated_at" db:"generated_at"`
}

// RenderWarning is a non-fatal annotation on a successful render
type RenderWarning struct {
	Code    string `json:"code"` // "unknown_placeholder" | "rate_exceeds_ceiling"
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
