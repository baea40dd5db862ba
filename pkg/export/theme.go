package export

import (
	"strings"

	"github.com/livetemplate/stepdoc"
)

// Theme is a fixed color palette applied to the HTML export.
type Theme struct {
	Name           string
	Background     string
	Text           string
	Secondary      string
	CardBackground string
	Border         string
}

// Theme presets.
var (
	ThemeLight = Theme{
		Name:           "light",
		Background:     "#ffffff",
		Text:           "#1e293b",
		Secondary:      "#64748b",
		CardBackground: "#f8fafc",
		Border:         "#e2e8f0",
	}
	ThemeGray = Theme{
		Name:           "gray",
		Background:     "#64748b",
		Text:           "#f1f5f9",
		Secondary:      "#cbd5e1",
		CardBackground: "#475569",
		Border:         "#334155",
	}
	ThemeDark = Theme{
		Name:           "dark",
		Background:     "#0f172a",
		Text:           "#f1f5f9",
		Secondary:      "#94a3b8",
		CardBackground: "#1e293b",
		Border:         "#334155",
	}
)

// Themes returns the presets in display order.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeGray, ThemeDark}
}

// ThemeByName looks up a preset by name, case-insensitively. Unknown names
// return ThemeLight and false.
func ThemeByName(name string) (Theme, bool) {
	for _, t := range Themes() {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return ThemeLight, false
}

// variantAccent is the left-border accent used for styled steps and groups.
func variantAccent(v stepdoc.StyleVariant, t Theme) string {
	switch v {
	case stepdoc.VariantInfo:
		return "#3b82f6"
	case stepdoc.VariantWarning:
		return "#f59e0b"
	case stepdoc.VariantSuccess:
		return "#22c55e"
	case stepdoc.VariantError:
		return "#ef4444"
	default:
		return t.Border
	}
}
