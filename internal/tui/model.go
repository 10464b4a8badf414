// Package tui is the interactive history browser.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/history"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

const (
	// autoLoadThreshold is how far down the loaded rows the view may reach
	// before the next batch of commits is requested.
	autoLoadThreshold = 0.98
	// maxGraphCells caps the graph column; wider graphs are cut.
	maxGraphCells = 40
)

// Source is the repository as the browser sees it; *git.Service satisfies it.
type Source interface {
	RepoPath() string
	ScanCommits(skip, batch int) ([]*git.Commit, string, bool, error)
	BranchLabels() (map[string][]string, error)
	BranchHeads(remotes bool) ([]*git.Commit, error)
	Diff(commit *git.Commit) (string, []git.FileSection, error)
	Resolve(id history.CommitID) (history.Commit, bool)
	Invalidate()
}

type Options struct {
	// Limit is the number of commits loaded per scan.
	Limit     int
	BatchSize int
	Workers   int
	Palette   render.Palette
	Syntax    bool
	// Branches grows the history from every branch head, not just HEAD.
	Branches bool
	Remotes  bool
	Logger   *slog.Logger
}

type diffPane struct {
	open   bool
	hash   string
	lines  []string
	files  []git.FileSection
	scroll int
	err    error
}

type searchState struct {
	editing bool
	input   string
	query   string
}

// Model is the bubbletea model of the browser. It is used through a pointer
// so history progress callbacks can update it from dispatched closures.
type Model struct {
	src    Source
	hist   *history.History
	opts   Options
	logger *slog.Logger

	// gen is bumped on reload; results of older loads are dropped.
	gen     int
	scanned int
	loading bool
	hasMore bool
	head    string
	labels  map[string][]string
	// grown is set once branch heads were requested for this generation.
	grown bool

	cursor int
	offset int
	width  int
	height int

	diff     diffPane
	search   searchState
	status   string
	showHelp bool

	shortcuts []shortcut
	keymap    map[string]func() tea.Cmd
}

// New returns a browser over src. send delivers messages to the running
// program; history progress is marshalled through it.
func New(src Source, opts Options, send func(tea.Msg)) *Model {
	if opts.Limit <= 0 {
		opts.Limit = git.DefaultBatch
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &Model{
		src:    src,
		opts:   opts,
		logger: opts.Logger,
		labels: map[string][]string{},
		width:  80,
		height: 24,
	}
	histOpts := []history.Option{
		history.WithBatchSize(opts.BatchSize),
		history.WithWorkers(opts.Workers),
		history.WithLogger(opts.Logger),
		// Progress only wakes Update for a redraw; the count shown comes
		// from BatchStart so nothing here touches the model.
		history.WithProgress(func(start, end int) {
			opts.Logger.Debug("rows laid out", slog.Int("start", start), slog.Int("end", end))
		}),
	}
	if send != nil {
		histOpts = append(histOpts, history.WithDispatcher(func(fn func()) {
			send(dispatchMsg(fn))
		}))
	}
	if opts.Branches {
		histOpts = append(histOpts, history.WithProvider(src))
	}
	m.hist = history.New(histOpts...)
	m.bindShortcuts()
	return m
}

func (m *Model) Init() tea.Cmd {
	m.loading = true
	m.status = "Loading commits..."
	return m.loadCmd(0, true)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampScroll()
		return m, m.ensureLayout()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case dispatchMsg:
		msg()
		return m, nil
	case ReloadMsg:
		return m, m.reload()
	case loadedMsg:
		return m, m.applyLoaded(msg)
	case branchesMsg:
		return m, m.applyBranches(msg)
	case diffMsg:
		m.applyDiff(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) reload() tea.Cmd {
	m.gen++
	m.loading = true
	m.status = "Reloading commits..."
	m.src.Invalidate()
	m.logger.Debug("reload", slog.Int("generation", m.gen))
	return m.loadCmd(0, true)
}

func (m *Model) applyLoaded(msg loadedMsg) tea.Cmd {
	if msg.gen != m.gen {
		m.logger.Debug("dropping stale load", slog.Int("generation", msg.gen))
		return nil
	}
	m.loading = false
	if msg.err != nil {
		m.logger.Error("failed to load commits", slog.Any("error", msg.err))
		m.status = fmt.Sprintf("Failed to load commits: %v", msg.err)
		return nil
	}
	if msg.reset {
		m.hist.Reset()
		m.scanned = 0
		m.grown = false
	}
	if msg.labels != nil {
		m.labels = msg.labels
	}
	m.head = msg.head
	m.hasMore = msg.hasMore
	m.scanned += len(msg.commits)
	rows := make([]history.Commit, 0, len(msg.commits))
	for _, c := range msg.commits {
		rows = append(rows, c)
	}
	added := m.hist.AppendMany(rows)
	m.logger.Debug("commits loaded",
		slog.Int("added", added),
		slog.Int("total", m.hist.Len()),
		slog.Bool("has_more", m.hasMore),
	)
	m.clampScroll()
	m.status = ""
	if msg.reset {
		m.refreshDiff()
	}
	cmds := []tea.Cmd{m.ensureLayout()}
	// Branch heads are grown only once the scan is complete: rows appended
	// after a Grow would land below the ancestors it already placed.
	if m.opts.Branches && !m.hasMore && !m.grown {
		m.grown = true
		cmds = append(cmds, m.branchesCmd())
	}
	if msg.reset && m.diff.open {
		cmds = append(cmds, m.openDiff())
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyBranches(msg branchesMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}
	if msg.err != nil {
		m.logger.Error("failed to list branch heads", slog.Any("error", msg.err))
		m.status = fmt.Sprintf("Failed to list branches: %v", msg.err)
		return nil
	}
	added := 0
	for _, c := range msg.heads {
		added += m.hist.Grow(c, nil)
	}
	m.logger.Debug("branches grown", slog.Int("heads", len(msg.heads)), slog.Int("added", added))
	m.status = ""
	return m.ensureLayout()
}

func (m *Model) applyDiff(msg diffMsg) {
	if !m.diff.open || msg.hash != m.diff.hash {
		return
	}
	m.diff.err = msg.err
	m.diff.files = msg.files
	m.diff.lines = nil
	if msg.err == nil {
		m.diff.lines = strings.Split(msg.text, "\n")
	}
}

// ensureLayout asks for layout a batch past the visible rows and loads more
// commits once the view gets close to the end of what is loaded.
func (m *Model) ensureLayout() tea.Cmd {
	n := m.hist.Len()
	if n == 0 {
		return nil
	}
	target := min(m.offset+m.listHeight()+m.hist.BatchSize(), n-1)
	m.hist.ProcessBatches(target)
	if m.loading || !m.hasMore {
		return nil
	}
	reach := float64(m.offset+m.listHeight()) / float64(n)
	if reach < autoLoadThreshold {
		return nil
	}
	m.loading = true
	m.logger.Debug("loading more commits", slog.Int("skip", m.scanned))
	return m.loadCmd(m.scanned, false)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.search.editing {
		return m.handleSearchKey(msg)
	}
	key := msg.String()
	if m.showHelp {
		// Any key closes the shortcut list; quitting still works.
		m.showHelp = false
		if key != "q" && key != "ctrl+c" {
			return nil
		}
	}
	if handler, ok := m.keymap[key]; ok {
		return handler()
	}
	return nil
}

func (m *Model) toggleDiff() tea.Cmd {
	if m.diff.open {
		m.closeDiff()
		return nil
	}
	m.diff.open = true
	m.clampScroll()
	return tea.Batch(m.openDiff(), m.ensureLayout())
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.search.editing = false
	case tea.KeyEnter:
		m.search.editing = false
		m.search.query = strings.TrimSpace(m.search.input)
		return m.findNext(1)
	case tea.KeyBackspace:
		if r := []rune(m.search.input); len(r) > 0 {
			m.search.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.search.input += " "
	case tea.KeyRunes:
		m.search.input += string(msg.Runes)
	}
	return nil
}

// findNext moves the cursor to the next loaded commit matching the query,
// wrapping around.
func (m *Model) findNext(dir int) tea.Cmd {
	if m.search.query == "" {
		return nil
	}
	n := m.hist.Len()
	for step := 1; step <= n; step++ {
		i := ((m.cursor+dir*step)%n + n) % n
		row, ok := m.hist.Row(i)
		if !ok {
			continue
		}
		if c, ok := row.Commit.(*git.Commit); ok && c.Matches(m.search.query) {
			m.status = ""
			return m.moveCursor(i - m.cursor)
		}
	}
	m.status = fmt.Sprintf("No loaded commit matches %q.", m.search.query)
	return nil
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	n := m.hist.Len()
	if n == 0 || delta == 0 {
		return nil
	}
	cursor := max(0, min(m.cursor+delta, n-1))
	if cursor == m.cursor {
		return nil
	}
	m.cursor = cursor
	m.clampScroll()
	cmds := []tea.Cmd{m.ensureLayout()}
	if m.diff.open {
		cmds = append(cmds, m.openDiff())
	}
	return tea.Batch(cmds...)
}

func (m *Model) clampScroll() {
	n := m.hist.Len()
	m.cursor = max(0, min(m.cursor, n-1))
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, n-1))
}

func (m *Model) current() (*git.Commit, bool) {
	row, ok := m.hist.Row(m.cursor)
	if !ok {
		return nil, false
	}
	c, ok := row.Commit.(*git.Commit)
	return c, ok
}

func (m *Model) openDiff() tea.Cmd {
	c, ok := m.current()
	if !ok {
		return nil
	}
	if m.diff.hash == c.Hash && (m.diff.lines != nil || m.diff.err != nil) {
		return nil
	}
	m.diff = diffPane{open: true, hash: c.Hash}
	return m.diffCmd(c)
}

// refreshDiff forgets the loaded diff so the pane is fetched again.
func (m *Model) refreshDiff() {
	m.diff = diffPane{open: m.diff.open}
}

func (m *Model) closeDiff() {
	m.diff = diffPane{}
	m.clampScroll()
}

func (m *Model) scrollDiff(delta int) {
	last := max(0, len(m.diff.lines)-m.diffHeight())
	m.diff.scroll = max(0, min(m.diff.scroll+delta, last))
}

func (m *Model) jumpFile(dir int) {
	if len(m.diff.files) == 0 {
		return
	}
	if dir > 0 {
		for _, f := range m.diff.files {
			if f.Line-1 > m.diff.scroll {
				m.diff.scroll = f.Line - 1
				return
			}
		}
		return
	}
	for i := len(m.diff.files) - 1; i >= 0; i-- {
		if f := m.diff.files[i]; f.Line-1 < m.diff.scroll {
			m.diff.scroll = f.Line - 1
			return
		}
	}
	m.diff.scroll = 0
}

func (m *Model) summary() string {
	n := m.hist.Len()
	if n == 0 {
		return "Repository has no commits yet."
	}
	more := ""
	if m.hasMore {
		more = "+"
	}
	return fmt.Sprintf("%d%s commits, %d laid out", n, more, min(m.hist.BatchStart(), n))
}
