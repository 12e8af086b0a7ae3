// Package cli provides terminal UI helpers for the elits commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the TUI color scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is a violet-on-dark theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#a78bfa"),
	Accent:  lipgloss.Color("#34d399"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Active lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Active: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Section is one labeled region of a frame. Content is re-read on every
// render so it can track live state.
type Section struct {
	Label   string
	Content func() []string
}

// Frame renders a bordered full-screen view: a title row with a status
// badge, labeled sections, and a help line at the bottom.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Badge    string // optional highlighted badge after the status
	Sections []Section
	Help     string
}

// Render draws the frame for the given terminal size.
func (f Frame) Render(width, height int) string {
	if width < 8 || height < 6 {
		return "..."
	}

	bc := f.Styles.Border
	contentWidth := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Help.Render("[" + f.Status + "]")
	if f.Badge != "" {
		status += " " + f.Styles.Active.Render(f.Badge)
	}
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	lines = append(lines, bc.Render("│")+strings.Repeat(" ", width-2)+bc.Render("│"))

	n := max(len(f.Sections), 1)
	sectionHeight := max((height-5-n)/n, 2)
	for _, sec := range f.Sections {
		lines = append(lines, f.renderSection(sec, sectionHeight, width, contentWidth)...)
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	lines = append(lines, f.Styles.Help.Render(f.Help))
	return strings.Join(lines, "\n")
}

func (f Frame) renderSection(sec Section, height, width, contentWidth int) []string {
	bc := f.Styles.Border
	var lines []string

	label := f.Styles.Label.Render(sec.Label)
	pad := max(0, width-3-lipgloss.Width(label))
	lines = append(lines, bc.Render("├─")+label+bc.Render(strings.Repeat("─", pad)+"┤"))

	content := sec.Content()
	start := max(len(content)-height, 0)
	for i := range height {
		text := ""
		if idx := start + i; idx < len(content) {
			text = content[idx]
		}
		if contentWidth > 1 && lipgloss.Width(text) > contentWidth {
			text = Truncate(text, contentWidth-1) + "…"
		}
		lines = append(lines, bc.Render("│")+" "+text+
			strings.Repeat(" ", max(0, contentWidth-lipgloss.Width(text)))+" "+bc.Render("│"))
	}
	return lines
}

// Truncate cuts a string to the given display width, handling wide runes.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	w := 0
	for i, r := range runes {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			return string(runes[:i])
		}
		w += rw
	}
	return s
}
