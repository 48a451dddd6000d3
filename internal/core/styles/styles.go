// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/timeline"
)

var current Palette

// Style exports. Rebuilt by SetTheme.
var (
	HeaderStyle  lipgloss.Style
	MutedStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	MarkerStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	current = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	MarkerStyle = lipgloss.NewStyle().Foreground(p.Secondary).Italic(true)
}

// Health styles a milestone health classification.
func Health(h milestone.Health) string {
	switch h {
	case milestone.HealthHealthy:
		return SuccessStyle.Render(string(h))
	case milestone.HealthPartial:
		return WarningStyle.Render(string(h))
	default:
		return ErrorStyle.Render(string(h))
	}
}

// Severity styles a gating notice severity.
func Severity(s milestone.Severity) string {
	if s == milestone.SeverityError {
		return ErrorStyle.Render(string(s))
	}
	return WarningStyle.Render(string(s))
}

// Markers styles a commit's markers, or a muted dash when there are none.
func Markers(c timeline.Commit) string {
	if !c.HasMarkers() {
		return MutedStyle.Render("-")
	}
	out := ""
	for i, m := range c.Markers {
		if i > 0 {
			out += ","
		}
		out += string(m)
	}
	return MarkerStyle.Render(out)
}

// FormTheme returns the huh theme used by interactive prompts.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(current.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(current.Muted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(current.Primary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(current.Success)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(current.Primary).Foreground(current.Surface)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(current.Error)
	return t
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
