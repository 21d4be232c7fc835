package ui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/xonecas/coppice/internal/config"
)

// Palette maps config style names to ready lipgloss styles. Built once at
// startup; the blitter looks styles up per attribute run.
type Palette struct {
	styles map[string]lipgloss.Style
}

// NewPalette resolves every declared style, aliases included.
func NewPalette(cfg *config.Config) Palette {
	p := Palette{styles: make(map[string]lipgloss.Style)}
	for name := range cfg.Styles() {
		p.styles[name] = buildStyle(cfg.ResolveStyle(name))
	}
	return p
}

// buildStyle translates a config style into lipgloss. Color specs are
// comma-separated tokens: "bold", "underline" and "reverse" set attributes,
// anything else is a color (ANSI number or hex).
func buildStyle(style config.Style) lipgloss.Style {
	out := lipgloss.NewStyle()
	out = applyColorSpec(out, style.FG, false)
	out = applyColorSpec(out, style.BG, true)
	return out
}

func applyColorSpec(s lipgloss.Style, spec string, background bool) lipgloss.Style {
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		switch token {
		case "bold":
			s = s.Bold(true)
		case "underline":
			s = s.Underline(true)
		case "reverse":
			s = s.Reverse(true)
		default:
			if background {
				s = s.Background(lipgloss.Color(token))
			} else {
				s = s.Foreground(lipgloss.Color(token))
			}
		}
	}
	return s
}

// Get returns the style registered under name, or the zero style.
func (p Palette) Get(name string) lipgloss.Style {
	return p.styles[name]
}
