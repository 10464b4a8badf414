package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	shortHelp = "? shortcuts  enter diff  / find  r reload  q quit"
	// diffStep is how far U and D scroll the diff pane.
	diffStep = 18
)

type shortcut struct {
	keys        []string
	display     string
	description string
	category    string
	handler     func() tea.Cmd
}

func (m *Model) shortcutBindings() []shortcut {
	diffOnly := func(fn func()) func() tea.Cmd {
		return func() tea.Cmd {
			if m.diff.open {
				fn()
			}
			return nil
		}
	}
	return []shortcut{
		{
			category: "Commit list", display: "j / ↓", description: "Move down one commit",
			keys: []string{"j", "down"}, handler: func() tea.Cmd { return m.moveCursor(1) },
		},
		{
			category: "Commit list", display: "k / ↑", description: "Move up one commit",
			keys: []string{"k", "up"}, handler: func() tea.Cmd { return m.moveCursor(-1) },
		},
		{
			category: "Commit list", display: "g / Home", description: "Jump to the first commit",
			keys: []string{"g", "home"}, handler: func() tea.Cmd { return m.moveCursor(-m.cursor) },
		},
		{
			category: "Commit list", display: "G / End", description: "Jump to the last loaded commit",
			keys: []string{"G", "end"}, handler: func() tea.Cmd { return m.moveCursor(m.hist.Len() - 1 - m.cursor) },
		},
		{
			category: "Commit list", display: "PgDn / Ctrl+F", description: "Scroll commit list down a page",
			keys: []string{"pgdown", "ctrl+f"}, handler: func() tea.Cmd { return m.moveCursor(m.listHeight()) },
		},
		{
			category: "Commit list", display: "PgUp / Ctrl+B", description: "Scroll commit list up a page",
			keys: []string{"pgup", "ctrl+b"}, handler: func() tea.Cmd { return m.moveCursor(-m.listHeight()) },
		},
		{
			category: "Commit list", display: "Enter", description: "Show or hide the diff of the selected commit",
			keys: []string{"enter"}, handler: m.toggleDiff,
		},
		{
			category: "Diff view", display: "Space", description: "Scroll diff down one page",
			keys: []string{" ", "space"}, handler: diffOnly(func() { m.scrollDiff(m.diffHeight()) }),
		},
		{
			category: "Diff view", display: "b", description: "Scroll diff up one page",
			keys: []string{"b"}, handler: diffOnly(func() { m.scrollDiff(-m.diffHeight()) }),
		},
		{
			category: "Diff view", display: "D", description: fmt.Sprintf("Scroll diff down %d lines", diffStep),
			keys: []string{"D", "ctrl+d"}, handler: diffOnly(func() { m.scrollDiff(diffStep) }),
		},
		{
			category: "Diff view", display: "U", description: fmt.Sprintf("Scroll diff up %d lines", diffStep),
			keys: []string{"U", "ctrl+u"}, handler: diffOnly(func() { m.scrollDiff(-diffStep) }),
		},
		{
			category: "Diff view", display: "]", description: "Jump to the next file",
			keys: []string{"]"}, handler: diffOnly(func() { m.jumpFile(1) }),
		},
		{
			category: "Diff view", display: "[", description: "Jump to the previous file",
			keys: []string{"["}, handler: diffOnly(func() { m.jumpFile(-1) }),
		},
		{
			category: "Diff view", display: "Escape", description: "Close the diff",
			keys: []string{"esc"}, handler: diffOnly(m.closeDiff),
		},
		{
			category: "General", display: "/", description: "Find a commit by hash, author or message",
			keys: []string{"/"}, handler: func() tea.Cmd {
				m.search.editing = true
				m.search.input = ""
				return nil
			},
		},
		{
			category: "General", display: "n / N", description: "Next or previous match",
			keys: []string{"n"}, handler: func() tea.Cmd { return m.findNext(1) },
		},
		{
			keys: []string{"N"}, handler: func() tea.Cmd { return m.findNext(-1) },
		},
		{
			category: "General", display: "r / F5", description: "Reload commits",
			keys: []string{"r", "f5"}, handler: m.reload,
		},
		{
			category: "General", display: "? / F1", description: "Show shortcut list",
			keys: []string{"?", "f1"}, handler: func() tea.Cmd {
				m.showHelp = true
				return nil
			},
		},
		{
			category: "General", display: "q / Ctrl+C", description: "Quit gitk-graph",
			keys: []string{"q", "ctrl+c"}, handler: func() tea.Cmd {
				m.hist.Abort()
				return tea.Quit
			},
		},
	}
}

func (m *Model) bindShortcuts() {
	m.shortcuts = m.shortcutBindings()
	m.keymap = make(map[string]func() tea.Cmd)
	for _, sc := range m.shortcuts {
		for _, k := range sc.keys {
			m.keymap[k] = sc.handler
		}
	}
}

// helpLines lists the documented shortcuts grouped by category.
func (m *Model) helpLines() []string {
	var lines []string
	category := ""
	width := 0
	for _, sc := range m.shortcuts {
		width = max(width, len([]rune(sc.display)))
	}
	for _, sc := range m.shortcuts {
		if sc.display == "" {
			continue
		}
		if sc.category != category {
			if category != "" {
				lines = append(lines, "")
			}
			category = sc.category
			lines = append(lines, category)
		}
		pad := strings.Repeat(" ", width-len([]rune(sc.display)))
		lines = append(lines, fmt.Sprintf("  %s%s  %s", sc.display, pad, sc.description))
	}
	return lines
}
