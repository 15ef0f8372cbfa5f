package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mrlokans/rustypages/internal/settings"
)

// Theme holds the styles of the reading view.
type Theme struct {
	Name   string
	Text   lipgloss.Style
	Header lipgloss.Style
	Status lipgloss.Style
	Muted  lipgloss.Style
	Bar    lipgloss.Color
	// Margin is the horizontal padding around the text, in cells.
	Margin int
}

type palette struct {
	fg, bg, accent, muted lipgloss.Color
}

var palettes = map[string]palette{
	"light": {fg: "#222222", bg: "#FFFFFF", accent: "#3366CC", muted: "#888888"},
	"sepia": {fg: "#5B4636", bg: "#F4ECD8", accent: "#8B5A2B", muted: "#9C8B74"},
	"dark":  {fg: "#DDDDDD", bg: "#1E1E1E", accent: "#6FA8DC", muted: "#777777"},
}

var margins = map[string]int{
	"small":  1,
	"medium": 3,
	"large":  6,
}

// NewTheme builds the styles for the given reader settings. Unknown values
// fall back to the defaults.
func NewTheme(s settings.Reader) Theme {
	def := settings.Defaults()
	p, ok := palettes[s.Theme]
	if !ok {
		s.Theme = def.Theme
		p = palettes[def.Theme]
	}
	margin, ok := margins[s.Margin]
	if !ok {
		margin = margins[def.Margin]
	}

	text := lipgloss.NewStyle().
		Foreground(p.fg).
		Background(p.bg).
		Padding(0, margin)
	// The terminal has one font size; "large" is rendered bold instead.
	if s.FontSize == "large" {
		text = text.Bold(true)
	}

	return Theme{
		Name:   s.Theme,
		Text:   text,
		Header: lipgloss.NewStyle().Foreground(p.accent).Bold(true).Padding(0, margin),
		Status: lipgloss.NewStyle().Foreground(p.fg).Padding(0, margin),
		Muted:  lipgloss.NewStyle().Foreground(p.muted).Padding(0, margin),
		Bar:    p.accent,
		Margin: margin,
	}
}
