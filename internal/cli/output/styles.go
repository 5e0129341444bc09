package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Muted     lipgloss.Style
	Node      lipgloss.Style
	Copy      lipgloss.Style
	Transform lipgloss.Style
}

// NewStyles builds styles for w. Colour is only used on a terminal.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if isTTY {
		r.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Header1:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:   r.NewStyle().Bold(true),
		Success:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:      r.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Node:      r.NewStyle().Foreground(lipgloss.Color("13")),
		Copy:      r.NewStyle().Foreground(lipgloss.Color("10")),
		Transform: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Action styles a column lineage action.
func (s *Styles) Action(action string) string {
	switch action {
	case "COPY":
		return s.Copy.Render(action)
	case "TRANSFORM":
		return s.Transform.Render(action)
	default:
		return action
	}
}
