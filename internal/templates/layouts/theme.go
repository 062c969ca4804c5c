package layouts

import (
	"fmt"
	"strings"

	"github.com/codr1/hoteldash/internal/models"
)

// themeStyle is the <style> element carrying the theme variables. Colors are
// validated hex values, so the output is safe to emit unescaped.
func themeStyle(theme *models.Theme) string {
	return "<style>" + getThemeCssVars(theme) + "</style>"
}

func getThemeCssVars(theme *models.Theme) string {
	defaultTheme := models.DefaultTheme()
	primary := defaultTheme.PrimaryColor
	accent := defaultTheme.AccentColor
	chart := defaultTheme.ChartColor

	if theme != nil {
		primary = themeColorOrDefault(theme.PrimaryColor, primary)
		accent = themeColorOrDefault(theme.AccentColor, accent)
		chart = themeColorOrDefault(theme.ChartColor, chart)
	}

	return fmt.Sprintf(
		":root{--theme-primary:%s;--theme-primary-text:%s;--theme-accent:%s;--theme-chart:%s;}",
		primary,
		models.TextColorOn(primary),
		accent,
		chart,
	)
}

func themeColorOrDefault(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	if !models.IsHexColor(trimmed) {
		return fallback
	}
	return trimmed
}
