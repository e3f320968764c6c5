package render

import "github.com/charmbracelet/lipgloss"

// Brand colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
)

type styles struct {
	header lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(Iris),
		ok:     lipgloss.NewStyle().Foreground(Green),
		bad:    lipgloss.NewStyle().Bold(true).Foreground(Red),
		warn:   lipgloss.NewStyle().Foreground(Yellow),
		dim:    lipgloss.NewStyle().Foreground(Slate),
	}
}
