package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/history"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

// testRepo builds commits one minute apart in an in-memory repository.
type testRepo struct {
	t    *testing.T
	fs   billy.Filesystem
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	when time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	fs := memfs.New()
	repo, err := gitlib.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, fs: fs, repo: repo, wt: wt, when: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *testRepo) write(file, content string) {
	f, err := r.fs.Create(file)
	require.NoError(r.t, err)
	_, err = f.Write([]byte(content + "\n"))
	require.NoError(r.t, err)
	require.NoError(r.t, f.Close())
	_, err = r.wt.Add(file)
	require.NoError(r.t, err)
}

func (r *testRepo) commit(file, msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.write(file, msg)
	r.when = r.when.Add(time.Minute)
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: r.when}
	h, err := r.wt.Commit(msg, &gitlib.CommitOptions{Author: sig, Committer: sig, Parents: parents})
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) checkout(branch string, create bool) {
	require.NoError(r.t, r.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
		Force:  true,
	}))
}

func (r *testRepo) service() *git.Service {
	svc, err := git.NewService(backend.NewNative(r.repo, "mem"))
	require.NoError(r.t, err)
	return svc
}

// forkedRepo is master merging topic, plus an unmerged "wip" branch:
//
//	base <- m1 <- merge
//	    \- t1 <-/
//	     \- t2 (wip)
func forkedRepo(t *testing.T) (*git.Service, map[string]plumbing.Hash) {
	t.Helper()
	r := newTestRepo(t)
	h := map[string]plumbing.Hash{}
	h["base"] = r.commit("base.txt", "base")
	r.checkout("wip", true)
	h["t2"] = r.commit("wip.txt", "t2")
	r.checkout("master", false)
	r.checkout("topic", true)
	h["t1"] = r.commit("topic.txt", "t1")
	r.checkout("master", false)
	h["m1"] = r.commit("main.txt", "m1")
	// The merge result carries topic's file as well.
	r.write("topic.txt", "t1")
	h["merge"] = r.commit("merge.txt", "merge", h["m1"], h["t1"])
	return r.service(), h
}

// sideRepo has a side branch forking from the root, far below the tip of a
// long master:
//
//	base <- m1 <- m2 <- m3 <- m4
//	    \- s1 (side)
func sideRepo(t *testing.T) (*git.Service, map[string]plumbing.Hash) {
	t.Helper()
	r := newTestRepo(t)
	h := map[string]plumbing.Hash{}
	h["base"] = r.commit("base.txt", "base")
	r.checkout("side", true)
	h["s1"] = r.commit("side.txt", "s1")
	r.checkout("master", false)
	for _, name := range []string{"m1", "m2", "m3", "m4"} {
		h[name] = r.commit(name+".txt", name)
	}
	return r.service(), h
}

// harness drives a Model the way a tea.Program would, running commands
// synchronously and feeding dispatched history progress back into Update.
type harness struct {
	t    *testing.T
	m    *Model
	msgs chan tea.Msg
}

func newHarness(t *testing.T, src Source, opts Options) *harness {
	t.Helper()
	if opts.Palette.Lanes == nil {
		opts.Palette = render.PaletteFor(render.ThemeLight)
	}
	h := &harness{t: t, msgs: make(chan tea.Msg, 4096)}
	h.m = New(src, opts, func(msg tea.Msg) { h.msgs <- msg })
	t.Cleanup(func() {
		h.m.hist.Abort()
		h.m.hist.Wait()
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 20})
	h.exec(h.m.Init())
	h.settle()
	return h
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(c)
		}
	default:
		_, next := h.m.Update(msg)
		h.exec(next)
	}
}

func (h *harness) settle() {
	for {
		h.m.hist.Wait()
		select {
		case msg := <-h.msgs:
			_, cmd := h.m.Update(msg)
			h.exec(cmd)
		default:
			return
		}
	}
}

func (h *harness) send(msg tea.Msg) {
	_, cmd := h.m.Update(msg)
	h.exec(cmd)
	h.settle()
}

func (h *harness) keys(keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			h.send(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			h.send(tea.KeyMsg{Type: tea.KeyEsc})
		default:
			h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

func (h *harness) index(id plumbing.Hash) int {
	i, ok := h.m.hist.Index(history.CommitID(id.String()))
	require.True(h.t, ok, id.String())
	return i
}

func TestBrowserLoadsInBatches(t *testing.T) {
	svc, ids := forkedRepo(t)
	h := newHarness(t, svc, Options{Limit: 2, BatchSize: 2})

	assert.Equal(t, 4, h.m.hist.Len())
	assert.Equal(t, 4, h.m.scanned)
	assert.False(t, h.m.hasMore)
	assert.False(t, h.m.loading)
	assert.Equal(t, "master", h.m.head)
	assert.Equal(t, 4, h.m.hist.BatchStart())
	assert.Equal(t, 0, h.index(ids["merge"]))

	view := h.m.View()
	for _, want := range []string{"gitk-graph", "HEAD -> master", "merge", "base", "●", "4 commits, 4 laid out"} {
		assert.Contains(t, view, want)
	}
	assert.Len(t, strings.Split(view, "\n"), 20)
}

func TestBrowserNavigation(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	steps := []struct {
		key  string
		want int
	}{
		{key: "k", want: 0},
		{key: "j", want: 1},
		{key: "G", want: 3},
		{key: "j", want: 3},
		{key: "k", want: 2},
		{key: "g", want: 0},
	}
	for _, s := range steps {
		h.keys(s.key)
		require.Equal(t, s.want, h.m.cursor, "after %q", s.key)
	}
}

func TestBrowserScrollsWithCursor(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{})
	h.send(tea.WindowSizeMsg{Width: 80, Height: 4})

	require.Equal(t, 2, h.m.listHeight())
	h.keys("j", "j", "j")
	assert.Equal(t, 3, h.m.cursor)
	assert.Equal(t, 2, h.m.offset)
	h.keys("g")
	assert.Equal(t, 0, h.m.offset)
}

func TestBrowserDiffPane(t *testing.T) {
	svc, ids := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	h.keys("enter")
	require.True(t, h.m.diff.open)
	require.NoError(t, h.m.diff.err)
	assert.Equal(t, ids["merge"].String(), h.m.diff.hash)
	// The merge is diffed against m1, so it brings in the topic file too.
	require.Len(t, h.m.diff.files, 2)
	assert.Equal(t, "merge.txt", h.m.diff.files[0].Path)
	assert.Equal(t, "topic.txt", h.m.diff.files[1].Path)

	view := h.m.View()
	assert.Contains(t, view, "commit "+ids["merge"].String())
	assert.Len(t, strings.Split(view, "\n"), 20)

	h.keys("]")
	assert.Equal(t, h.m.diff.files[0].Line-1, h.m.diff.scroll)
	h.keys("]")
	assert.Equal(t, h.m.diff.files[1].Line-1, h.m.diff.scroll)
	h.keys("]")
	assert.Equal(t, h.m.diff.files[1].Line-1, h.m.diff.scroll)
	h.keys("[")
	assert.Equal(t, h.m.diff.files[0].Line-1, h.m.diff.scroll)
	h.keys("[")
	assert.Equal(t, 0, h.m.diff.scroll)

	h.keys("j")
	assert.Equal(t, h.m.hist.Len() > 1, h.m.diff.hash != ids["merge"].String())
	assert.NotNil(t, h.m.diff.lines)

	h.keys("esc")
	assert.False(t, h.m.diff.open)
	assert.Len(t, strings.Split(h.m.View(), "\n"), 20)
}

func TestBrowserReload(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{Limit: 3})
	require.Equal(t, 4, h.m.hist.Len())

	h.keys("j", "j")
	h.send(ReloadMsg{})
	assert.Equal(t, 1, h.m.gen)
	assert.Equal(t, 4, h.m.hist.Len())
	assert.Equal(t, 4, h.m.scanned)
	assert.Equal(t, 2, h.m.cursor)
	assert.Equal(t, 4, h.m.hist.BatchStart())

	// A load started before the reload must not touch the new history.
	h.send(loadedMsg{gen: 0, reset: true})
	assert.Equal(t, 4, h.m.hist.Len())

	h.keys("r")
	assert.Equal(t, 2, h.m.gen)
	assert.Equal(t, 4, h.m.hist.Len())
}

func TestBrowserSearch(t *testing.T) {
	svc, ids := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	h.keys("/", "t", "1")
	assert.True(t, h.m.search.editing)
	assert.Contains(t, h.m.View(), "/t1")
	h.keys("enter")
	assert.False(t, h.m.search.editing)
	assert.Equal(t, "t1", h.m.search.query)
	assert.Equal(t, h.index(ids["t1"]), h.m.cursor)

	h.keys("g", "n")
	assert.Equal(t, h.index(ids["t1"]), h.m.cursor)

	h.keys("/", "z", "z", "esc")
	assert.Equal(t, "t1", h.m.search.query)

	h.keys("/")
	h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	h.keys("z", "z", "z", "enter")
	assert.Contains(t, h.m.status, `No loaded commit matches "zzz"`)
}

func TestBrowserGrowsBranches(t *testing.T) {
	svc, ids := forkedRepo(t)
	h := newHarness(t, svc, Options{Branches: true, BatchSize: 2})

	require.Equal(t, 5, h.m.hist.Len())
	assert.Less(t, h.index(ids["t2"]), h.index(ids["base"]))
	assert.Equal(t, 5, h.m.hist.BatchStart())
	for i := range h.m.hist.Len() {
		row, _ := h.m.hist.Row(i)
		assert.True(t, row.HasDot, "row %d", i)
	}
}

type failingSource struct {
	Source
	err error
}

func (f failingSource) ScanCommits(int, int) ([]*git.Commit, string, bool, error) {
	return nil, "", false, f.err
}

func TestBrowserGrowsBranchesAfterLastPage(t *testing.T) {
	svc, ids := sideRepo(t)
	h := newHarness(t, svc, Options{Limit: 2, BatchSize: 2, Branches: true})

	require.False(t, h.m.hasMore)
	require.Equal(t, 6, h.m.hist.Len())
	assert.Less(t, h.index(ids["m1"]), h.index(ids["base"]))
	assert.Less(t, h.index(ids["s1"]), h.index(ids["base"]))

	// Every commit sits above all of its parents, so no edge is left open.
	rows := h.m.hist.Rows(0, h.m.hist.Len())
	for i, row := range rows {
		require.True(t, row.HasDot, "row %d", i)
		for _, p := range row.Commit.ParentIDs() {
			j, ok := h.m.hist.Index(p)
			require.True(t, ok, "parent %s of row %d", p, i)
			assert.Less(t, i, j, "row %d is below its parent", i)
		}
	}
	last := rows[len(rows)-1]
	for _, l := range last.Lines {
		assert.False(t, l.ParentLane.Valid(), "root row has an open line: %+v", l)
	}
}

func TestBrowserLayoutCountFollowsReset(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{BatchSize: 2})
	require.Contains(t, h.m.View(), "4 commits, 4 laid out")

	first, head, _, err := svc.ScanCommits(0, 2)
	require.NoError(t, err)
	_, cmd := h.m.Update(loadedMsg{gen: h.m.gen, reset: true, commits: first, head: head})
	// Layout finished but its progress has not reached Update yet.
	h.m.hist.Wait()
	assert.Contains(t, h.m.summary(), "2 commits, 2 laid out")

	h.exec(cmd)
	h.settle()
	assert.Contains(t, h.m.summary(), "2 commits, 2 laid out")
}

func TestBrowserLoadError(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, failingSource{Source: svc, err: errors.New("boom")}, Options{})

	assert.Equal(t, 0, h.m.hist.Len())
	assert.Contains(t, h.m.status, "Failed to load commits: boom")
	assert.Contains(t, h.m.View(), "boom")
	h.keys("j", "enter")
	assert.Equal(t, 0, h.m.cursor)
}

func TestBrowserQuit(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestBrowserDiffScrolling(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	h.keys("D")
	assert.Equal(t, 0, h.m.diff.scroll, "diff keys are ignored while the pane is closed")

	h.keys("enter")
	require.NotNil(t, h.m.diff.lines)
	last := max(0, len(h.m.diff.lines)-h.m.diffHeight())

	h.keys("D")
	assert.Equal(t, min(diffStep, last), h.m.diff.scroll)
	h.keys("U")
	assert.Equal(t, 0, h.m.diff.scroll)
	h.keys(" ")
	assert.Equal(t, min(h.m.diffHeight(), last), h.m.diff.scroll)
	h.keys("b")
	assert.Equal(t, 0, h.m.diff.scroll)
}

func TestBrowserHelp(t *testing.T) {
	svc, _ := forkedRepo(t)
	h := newHarness(t, svc, Options{})

	h.keys("?")
	require.True(t, h.m.showHelp)
	view := h.m.View()
	for _, want := range []string{"Commit list", "Diff view", "General", "Scroll diff down one page", "Reload commits"} {
		assert.Contains(t, view, want)
	}
	assert.Len(t, strings.Split(view, "\n"), 20)

	// The key that closes the list does nothing else.
	h.keys("j")
	assert.False(t, h.m.showHelp)
	assert.Equal(t, 0, h.m.cursor)
}

func TestShortcutsAreBound(t *testing.T) {
	svc, _ := forkedRepo(t)
	m := New(svc, Options{}, nil)
	for _, sc := range m.shortcuts {
		for _, k := range sc.keys {
			assert.NotNil(t, m.keymap[k], k)
		}
	}
	assert.Contains(t, m.helpLines(), "Commit list")
}
