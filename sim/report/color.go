package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles used to color diagnostics.
type Styles struct {
	Info    lipgloss.Style
	Debug   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Fatal   lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
}

// NewStyles builds styles rendered for w.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		Info:    r.NewStyle().Foreground(lipgloss.Color("14")),            // cyan
		Debug:   r.NewStyle().Foreground(lipgloss.Color("14")).Bold(true), // cyan bold
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),            // yellow
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),             // red
		Fatal:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // red bold
		Pass:    r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // green bold
		Fail:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // red bold
	}
}

// Colorize renders text in the style for sev. Informational text at Debug
// verbosity or above gets the debug style.
func (s *Styles) Colorize(sev Severity, v Verbosity, text string) string {
	switch sev {
	case Info:
		if v >= Debug {
			return s.Debug.Render(text)
		}
		return s.Info.Render(text)
	case Warning:
		return s.Warning.Render(text)
	case Error:
		return s.Error.Render(text)
	case Fatal:
		return s.Fatal.Render(text)
	default:
		return text
	}
}

// ColorSupported reports whether diagnostics should be colored.
// Returns false if NO_COLOR is set, TERM is "dumb" or empty, or stderr is
// not a terminal.
func ColorSupported() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	termEnv := os.Getenv("TERM")
	if termEnv == "dumb" || termEnv == "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
