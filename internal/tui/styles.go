package tui

import (
	"github.com/charmbracelet/lipgloss"

	"saturn-terminal/internal/theme"
)

type styles struct {
	nav     lipgloss.Style
	toggle  lipgloss.Style
	surface lipgloss.Style
	footer  lipgloss.Style
	helpKey lipgloss.Style
	helpSep lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, b theme.Bundle) styles {
	s := styles{
		nav:     styleFrom(r, b.Nav),
		toggle:  styleFrom(r, b.Toggle),
		surface: styleFrom(r, b.Surface),
		footer:  styleFrom(r, b.Footer),
	}
	s.helpKey = s.footer.Bold(true)
	s.helpSep = s.footer
	if b.Roles.Accent != "" {
		s.helpKey = s.helpKey.Foreground(lipgloss.Color(b.Roles.Accent))
	}
	if b.Roles.Border != "" {
		s.helpSep = s.helpSep.Foreground(lipgloss.Color(b.Roles.Border))
	}
	// Without colors the toggle would blend into the nav bar.
	if b.Mono {
		s.toggle = s.toggle.Reverse(true)
	}
	return s
}

func styleFrom(r *lipgloss.Renderer, s theme.Style) lipgloss.Style {
	st := r.NewStyle().Bold(s.Bold)
	if s.Foreground != "" {
		st = st.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		st = st.Background(lipgloss.Color(s.Background))
	}
	return st
}
