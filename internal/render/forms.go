package render

import (
	"fmt"
	"strings"

	"hotspotcli/pkg/contracts/domain"
)

// OutputForm selects the textual serialization of a rendered configuration
type OutputForm string

const (
	// FormScript is the native device-script form (.rsc)
	FormScript OutputForm = "script"
	// FormText is the plain annotated form for human review (.txt)
	FormText OutputForm = "text"
)

// ParseOutputForm maps a query value to an output form, defaulting to script
func ParseOutputForm(s string) (OutputForm, error) {
	switch s {
	case "", string(FormScript):
		return FormScript, nil
	case string(FormText):
		return FormText, nil
	}
	return "", fmt.Errorf("unknown output form %q", s)
}

// Serialize writes the rendered configuration in the requested form. Both
// forms derive from the same substituted body and differ only in comment and
// header framing; substitution logic is never duplicated per form. The
// framing is deliberately timestamp-free so serialized output stays
// byte-identical across re-renders.
func Serialize(cfg *domain.RenderedConfig, form OutputForm) string {
	switch form {
	case FormText:
		return serializeText(cfg)
	default:
		return serializeScript(cfg)
	}
}

// FileName returns the download file name for the given form
func FileName(cfg *domain.RenderedConfig, form OutputForm) string {
	base := sanitizeFileName(cfg.Params.HotspotName)
	if base == "" {
		base = "hotspot-config"
	}
	if form == FormText {
		return base + ".txt"
	}
	return base + ".rsc"
}

// serializeScript frames the body as a RouterOS script
func serializeScript(cfg *domain.RenderedConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# RouterOS configuration for %s\n", cfg.Params.HotspotName)
	fmt.Fprintf(&b, "# Model: %s  Profile: %s\n", cfg.DeviceModel, cfg.ProfileName)
	fmt.Fprintf(&b, "# Template: %s\n", cfg.SourceTemplateID)
	b.WriteString("\n")
	b.WriteString(cfg.Body)
	if !strings.HasSuffix(cfg.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// serializeText frames the body for human review, annotating warnings
func serializeText(cfg *domain.RenderedConfig) string {
	var b strings.Builder
	b.WriteString("Hotspot Configuration (review copy)\n")
	b.WriteString("===================================\n")
	fmt.Fprintf(&b, "Hotspot:  %s\n", cfg.Params.HotspotName)
	fmt.Fprintf(&b, "Model:    %s\n", cfg.DeviceModel)
	fmt.Fprintf(&b, "Profile:  %s\n", cfg.ProfileName)
	fmt.Fprintf(&b, "Template: %s\n", cfg.SourceTemplateID)

	if len(cfg.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range cfg.Warnings {
			fmt.Fprintf(&b, "  - [%s] %s\n", w.Code, w.Message)
		}
	}

	b.WriteString("\n--- configuration body ---\n")
	b.WriteString(cfg.Body)
	if !strings.HasSuffix(cfg.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// sanitizeFileName lowercases and strips characters unsafe in file names
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
