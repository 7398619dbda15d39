package explain

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var boldStyle = lipgloss.NewStyle().Bold(true)

// Render turns the markup into terminal text: **bold** spans are styled,
// "* " and "- " list markers become bullets and lines are wrapped to width
// when width > 0. Text is never interpreted beyond these substitutions.
func Render(text string, width int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- ") {
			line = "• " + trimmed[2:]
		}
		out = append(out, renderBold(line))
	}
	s := strings.Join(out, "\n")
	if width > 0 {
		s = lipgloss.NewStyle().Width(width).Render(s)
	}
	return s
}

func renderBold(line string) string {
	var b strings.Builder
	for {
		start := strings.Index(line, "**")
		if start < 0 {
			break
		}
		end := strings.Index(line[start+2:], "**")
		if end < 0 {
			break
		}
		b.WriteString(line[:start])
		b.WriteString(boldStyle.Render(line[start+2 : start+2+end]))
		line = line[start+2+end+2:]
	}
	b.WriteString(line)
	return b.String()
}
