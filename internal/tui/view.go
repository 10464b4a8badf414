package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/history"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

// listHeight is the number of commit rows on screen: everything but the
// header and footer, or a third of it while the diff pane is open.
func (m *Model) listHeight() int {
	body := max(1, m.height-2)
	if !m.diff.open {
		return body
	}
	return max(1, body/3)
}

func (m *Model) diffHeight() int {
	if !m.diff.open {
		return 0
	}
	return max(1, m.height-2-m.listHeight()-1)
}

func (m *Model) View() string {
	p := m.opts.Palette
	dim := lipgloss.NewStyle().Foreground(p.Dim)
	line := lipgloss.NewStyle().MaxWidth(m.width)

	var b strings.Builder
	b.WriteString(line.Render(m.headerLine()))
	b.WriteByte('\n')

	height := m.listHeight()
	if m.showHelp {
		help := m.helpLines()
		for i := range max(0, m.height-2) {
			if i < len(help) {
				b.WriteString(line.Render(help[i]))
			}
			b.WriteByte('\n')
		}
		b.WriteString(line.Render(dim.Render("press any key to close")))
		return b.String()
	}
	rows := m.hist.Rows(m.offset, m.offset+height)
	graphWidth := min(render.Width(rows), maxGraphCells)
	for i := range height {
		if i < len(rows) {
			b.WriteString(line.Render(m.rowLine(m.offset+i, rows[i], graphWidth)))
		}
		b.WriteByte('\n')
	}

	if m.diff.open {
		b.WriteString(dim.Render(strings.Repeat("─", max(0, m.width))))
		b.WriteByte('\n')
		for _, l := range m.diffLines() {
			b.WriteString(line.Render(l))
			b.WriteByte('\n')
		}
	}

	b.WriteString(line.Render(m.footerLine()))
	return b.String()
}

func (m *Model) headerLine() string {
	p := m.opts.Palette
	title := lipgloss.NewStyle().Bold(true).Foreground(p.Lane(0)).Render("gitk-graph")
	parts := []string{title, m.src.RepoPath()}
	if m.head != "" {
		parts = append(parts, m.head)
	}
	summary := m.summary()
	if m.loading {
		summary = "Loading commits..."
	}
	parts = append(parts, summary)
	if m.status != "" && !m.loading {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, lipgloss.NewStyle().Foreground(p.Dim).Render("  ·  "))
}

func (m *Model) footerLine() string {
	if m.search.editing {
		return "/" + m.search.input + "█"
	}
	dim := lipgloss.NewStyle().Foreground(m.opts.Palette.Dim)
	if m.search.query != "" {
		return dim.Render(fmt.Sprintf("find: %s   %s", m.search.query, shortHelp))
	}
	return dim.Render(shortHelp)
}

func (m *Model) rowLine(index int, row history.Row, graphWidth int) string {
	p := m.opts.Palette
	marker := "  "
	if index == m.cursor {
		marker = lipgloss.NewStyle().Bold(true).Foreground(p.Lane(row.Dot.Color)).Render("▸ ")
	}
	parts := []string{marker + render.Row(row, p, graphWidth)}

	c, ok := row.Commit.(*git.Commit)
	if !ok {
		return strings.Join(parts, " ")
	}
	dim := lipgloss.NewStyle().Foreground(p.Dim)
	parts = append(parts, dim.Render(c.ShortHash()))
	if labels := m.labels[c.Hash]; len(labels) > 0 {
		parts = append(parts, render.Labels(labels, p, row.Dot.Color))
	}
	subject := c.Subject()
	if index == m.cursor {
		subject = lipgloss.NewStyle().Bold(true).Render(subject)
	}
	parts = append(parts, subject)
	parts = append(parts, dim.Render(fmt.Sprintf("%s  %s", c.Author.Name, c.Author.When.Format("2006-01-02 15:04"))))
	return strings.Join(parts, " ")
}

func (m *Model) diffLines() []string {
	height := m.diffHeight()
	out := make([]string, height)
	switch {
	case m.diff.err != nil:
		out[0] = fmt.Sprintf("Failed to load diff: %v", m.diff.err)
	case m.diff.lines == nil:
		out[0] = "Loading diff..."
	default:
		start := min(m.diff.scroll, len(m.diff.lines))
		end := min(start+height, len(m.diff.lines))
		copy(out, m.diff.lines[start:end])
	}
	return out
}
