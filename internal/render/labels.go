package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type labelStyle struct {
	fill lipgloss.Color
	text lipgloss.Color
	bold bool
}

func labelStyleFor(dark bool, label string, nodeColor lipgloss.Color) labelStyle {
	if strings.HasPrefix(label, "HEAD") {
		if dark {
			return labelStyle{fill: "#b58900", text: "#111111", bold: true}
		}
		return labelStyle{fill: "#ffd75e", text: "#111111", bold: true}
	}
	if strings.HasPrefix(strings.ToLower(label), "tag:") {
		if dark {
			return labelStyle{fill: "#3a3a3a", text: "#eaeaea"}
		}
		return labelStyle{fill: "#e6e6e6", text: "#111111"}
	}
	if strings.Contains(label, "/") {
		if dark {
			return labelStyle{fill: "#253446", text: "#4fa3ff"}
		}
		return labelStyle{fill: "#dbeafe", text: "#2563eb"}
	}
	if dark {
		return labelStyle{fill: "#1f3b2a", text: nodeColor}
	}
	return labelStyle{fill: "#dff5de", text: nodeColor}
}

// Labels renders ref decorations as coloured chips separated by a space.
// Local branches take the colour of the commit's lane.
func Labels(labels []string, p Palette, nodeColor uint) string {
	chips := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		st := labelStyleFor(p.Dark, label, p.Lane(nodeColor))
		chips = append(chips, lipgloss.NewStyle().
			Background(st.fill).
			Foreground(st.text).
			Bold(st.bold).
			Padding(0, 1).
			Render(label))
	}
	return strings.Join(chips, " ")
}
