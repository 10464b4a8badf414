package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

// dispatchMsg runs a closure on the event loop. History progress arrives
// this way so layout state is only touched from Update.
type dispatchMsg func()

// ReloadMsg asks the browser to rescan the repository from scratch.
type ReloadMsg struct{}

type loadedMsg struct {
	gen     int
	reset   bool
	commits []*git.Commit
	head    string
	hasMore bool
	labels  map[string][]string
	err     error
}

type branchesMsg struct {
	gen   int
	heads []*git.Commit
	err   error
}

type diffMsg struct {
	hash  string
	text  string
	files []git.FileSection
	err   error
}

func (m *Model) loadCmd(skip int, reset bool) tea.Cmd {
	src, gen, limit := m.src, m.gen, m.opts.Limit
	logger := m.logger
	return func() tea.Msg {
		commits, head, hasMore, err := src.ScanCommits(skip, limit)
		if err != nil {
			return loadedMsg{gen: gen, reset: reset, err: err}
		}
		labels, err := src.BranchLabels()
		if err != nil {
			logger.Error("failed to refresh branch labels", slog.Any("error", err))
		}
		return loadedMsg{
			gen:     gen,
			reset:   reset,
			commits: commits,
			head:    head,
			hasMore: hasMore,
			labels:  labels,
		}
	}
}

func (m *Model) branchesCmd() tea.Cmd {
	src, gen, remotes := m.src, m.gen, m.opts.Remotes
	return func() tea.Msg {
		heads, err := src.BranchHeads(remotes)
		return branchesMsg{gen: gen, heads: heads, err: err}
	}
}

func (m *Model) diffCmd(c *git.Commit) tea.Cmd {
	src, palette, syntax := m.src, m.opts.Palette, m.opts.Syntax
	return func() tea.Msg {
		text, files, err := src.Diff(c)
		if err != nil {
			return diffMsg{hash: c.Hash, err: err}
		}
		return diffMsg{hash: c.Hash, text: render.Diff(text, files, palette, syntax), files: files}
	}
}
