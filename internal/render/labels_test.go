package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLabelStyleFor(t *testing.T) {
	t.Parallel()

	node := lipgloss.Color("#00cc00")
	tests := []struct {
		label string
		dark  bool
		want  labelStyle
	}{
		{label: "HEAD -> main", want: labelStyle{fill: "#ffd75e", text: "#111111", bold: true}},
		{label: "HEAD", dark: true, want: labelStyle{fill: "#b58900", text: "#111111", bold: true}},
		{label: "tag: v1.0", want: labelStyle{fill: "#e6e6e6", text: "#111111"}},
		{label: "origin/main", dark: true, want: labelStyle{fill: "#253446", text: "#4fa3ff"}},
		{label: "main", want: labelStyle{fill: "#dff5de", text: node}},
	}
	for _, tt := range tests {
		if got := labelStyleFor(tt.dark, tt.label, node); got != tt.want {
			t.Fatalf("labelStyleFor(%v, %q) = %+v, want %+v", tt.dark, tt.label, got, tt.want)
		}
	}
}

func TestLabels(t *testing.T) {
	t.Parallel()

	p := PaletteFor(ThemeLight)
	got := Labels([]string{"HEAD -> main", " ", "tag: v1"}, p, 0)
	for _, want := range []string{"HEAD -> main", "tag: v1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Labels() = %q, missing %q", got, want)
		}
	}
	// Two chips padded by one cell on each side plus the separator.
	if w := lipgloss.Width(got); w != len("HEAD -> main")+2+1+len("tag: v1")+2 {
		t.Fatalf("unexpected label width %d", w)
	}
	if Labels(nil, p, 0) != "" || Labels([]string{""}, p, 0) != "" {
		t.Fatal("empty labels should render nothing")
	}
}
