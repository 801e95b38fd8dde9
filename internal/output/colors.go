package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Phase     *color.Color
	Role      *color.Color
	Variant   *color.Color
	Path      *color.Color
	Success   *color.Color
	Warn      *color.Color
	Error     *color.Color
	Dim       *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Phase:     color.New(color.FgBlue, color.Bold),
		Role:      color.New(color.FgCyan),
		Variant:   color.New(color.FgMagenta, color.Bold),
		Path:      color.New(color.FgWhite),
		Success:   color.New(color.FgGreen),
		Warn:      color.New(color.FgYellow),
		Error:     color.New(color.FgRed, color.Bold),
		Dim:       color.New(color.Faint),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Phase, scheme.Role, scheme.Variant, scheme.Path,
		scheme.Success, scheme.Warn, scheme.Error, scheme.Dim, scheme.Highlight,
	} {
		c.DisableColor()
	}
	return scheme
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}

// InfoIcon returns an info symbol with appropriate color
func InfoIcon(noColor bool) string {
	if noColor {
		return "ℹ"
	}
	return color.New(color.FgBlue).Sprint("ℹ")
}

// WarningIcon returns a warning symbol with appropriate color
func WarningIcon(noColor bool) string {
	if noColor {
		return "⚠"
	}
	return color.New(color.FgYellow).Sprint("⚠")
}
