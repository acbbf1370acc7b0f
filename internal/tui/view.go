package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fuzzdesc/internal/message"
	"fuzzdesc/pkg/address"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	fuzzStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
)

// ModelView renders the browser model's view as a string.
func ModelView(m model) string {
	switch m.ActiveView {
	case ViewQuitting:
		return "Bye!\n"
	case ViewMessageDetail:
		return detailView(m)
	default:
		return messageListView(m)
	}
}

func messageListView(m model) string {
	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(0, 1).
		Render(m.list.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, footer(m))
}

func detailView(m model) string {
	i := m.selected()
	msg := m.d.Messages[i]
	width := max(m.width-8, 20)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Message #%d (%s, %d bytes)", i, msg.Direction, len(msg.Original()))))
	b.WriteString("\n")
	for j, sub := range msg.Subcomponents {
		cursor := "  "
		if j == m.partCursor {
			cursor = "> "
		}
		label := fmt.Sprintf("%s%d.%d", cursor, i, j)
		if m.d.IsFuzzTarget(address.Part(i, j)) || (j == 0 && m.d.IsFuzzTarget(address.Whole(i))) {
			label += " " + fuzzStyle.Render("fuzz")
		}
		if len(sub.Attributes) > 0 {
			label += " [" + strings.Join(sub.Attributes, " ") + "]"
		}
		b.WriteString("\n" + label + "\n")
		b.WriteString(indent(wrapText(message.Escape(sub.Original()), width), "    "))
		b.WriteString("\n")
	}

	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(0, 1).
		Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, body, footer(m))
}

func footer(m model) string {
	lines := []string{m.targetsLine()}
	if m.status != "" {
		lines = append(lines, statusStyle.Render(m.status))
	}
	lines = append(lines, helpStyle.Render(m.helpLine()))
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
