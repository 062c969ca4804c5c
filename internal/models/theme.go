// internal/models/theme.go
package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Theme colors back large UI elements, not body text, so we use the AA large-text threshold.
const wcagAAMinContrastRatio = 3.0
const wcagAAContrastNote = "WCAG AA for large text/UI components"
const darkTextColor = "#000000"
const lightTextColor = "#FFFFFF"
const defaultThemePrimary = "#1f2937"
const defaultThemeAccent = "#2563eb"
const defaultThemeChart = "#adfa1d"

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// Theme holds the dashboard palette. ChartColor fills the occupancy bars.
type Theme struct {
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
	ChartColor   string `json:"chartColor"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor: defaultThemePrimary,
		AccentColor:  defaultThemeAccent,
		ChartColor:   defaultThemeChart,
	}
}

// NewTheme builds a theme from configured colors, keeping defaults for blanks.
func NewTheme(primary, accent, chart string) Theme {
	theme := DefaultTheme()
	if strings.TrimSpace(primary) != "" {
		theme.PrimaryColor = strings.TrimSpace(primary)
	}
	if strings.TrimSpace(accent) != "" {
		theme.AccentColor = strings.TrimSpace(accent)
	}
	if strings.TrimSpace(chart) != "" {
		theme.ChartColor = strings.TrimSpace(chart)
	}
	return theme
}

func (t Theme) Validate() error {
	colorFields := []struct {
		name  string
		value string
	}{
		{"primary_color", t.PrimaryColor},
		{"accent_color", t.AccentColor},
		{"chart_color", t.ChartColor},
	}

	for _, field := range colorFields {
		if !hexColorRegex.MatchString(field.value) {
			return fmt.Errorf("%s must be a 6-digit hex color like #AABBCC", field.name)
		}
		if err := validateTextContrast(field.name, field.value); err != nil {
			return err
		}
	}

	return nil
}

// TextColorOn returns black or white, whichever reads better on background.
func TextColorOn(background string) string {
	dark, err := contrastRatio(darkTextColor, background)
	if err != nil {
		return darkTextColor
	}
	light, err := contrastRatio(lightTextColor, background)
	if err != nil {
		return darkTextColor
	}
	if light > dark {
		return lightTextColor
	}
	return darkTextColor
}

func validateTextContrast(colorName, backgroundColor string) error {
	textColors := []string{darkTextColor, lightTextColor}
	bestRatio := 0.0
	bestText := ""
	for _, textColor := range textColors {
		ratio, err := contrastRatio(textColor, backgroundColor)
		if err != nil {
			return err
		}
		if ratio > bestRatio {
			bestRatio = ratio
			bestText = textColor
		}
	}
	if bestRatio < wcagAAMinContrastRatio {
		return fmt.Errorf(
			"%s must have contrast ratio >= %.1f with #000000 or #FFFFFF text (%s); best is %s at %.2f",
			colorName,
			wcagAAMinContrastRatio,
			wcagAAContrastNote,
			bestText,
			bestRatio,
		)
	}
	return nil
}

func contrastRatio(textColor, backgroundColor string) (float64, error) {
	textL, err := relativeLuminance(textColor)
	if err != nil {
		return 0, err
	}
	backgroundL, err := relativeLuminance(backgroundColor)
	if err != nil {
		return 0, err
	}
	lightest := math.Max(textL, backgroundL)
	darkest := math.Min(textL, backgroundL)
	return (lightest + 0.05) / (darkest + 0.05), nil
}

func relativeLuminance(hexColor string) (float64, error) {
	r, g, b, err := parseHexColor(hexColor)
	if err != nil {
		return 0, err
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b), nil
}

func parseHexColor(hexColor string) (float64, float64, float64, error) {
	if !hexColorRegex.MatchString(hexColor) {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}

	value, err := strconv.ParseUint(strings.TrimPrefix(hexColor, "#"), 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}

	r := float64((value >> 16) & 0xFF)
	g := float64((value >> 8) & 0xFF)
	b := float64(value & 0xFF)

	return r / 255, g / 255, b / 255, nil
}

func srgbToLinear(value float64) float64 {
	if value <= 0.03928 {
		return value / 12.92
	}
	return math.Pow((value+0.055)/1.055, 2.4)
}
