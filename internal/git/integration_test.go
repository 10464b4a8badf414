package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/history"
)

// forkedRepo builds an in-memory repository where master and topic diverge
// from base and master later merges topic:
//
//	base <- m1 <- merge
//	    \- t1 <-/
//	     \- t2 (branch "wip", not merged)
func forkedRepo(t *testing.T) (*Service, map[string]plumbing.Hash) {
	t.Helper()
	fs := memfs.New()
	repo, err := gitlib.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	commit := func(file, msg string, parents ...plumbing.Hash) plumbing.Hash {
		f, err := fs.Create(file)
		require.NoError(t, err)
		_, err = f.Write([]byte(msg + "\n"))
		require.NoError(t, err)
		require.NoError(t, f.Close())
		_, err = wt.Add(file)
		require.NoError(t, err)
		when = when.Add(time.Minute)
		sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: when}
		h, err := wt.Commit(msg, &gitlib.CommitOptions{Author: sig, Committer: sig, Parents: parents})
		require.NoError(t, err)
		return h
	}
	checkout := func(branch string, create bool) {
		require.NoError(t, wt.Checkout(&gitlib.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(branch),
			Create: create,
			Force:  true,
		}))
	}

	h := map[string]plumbing.Hash{}
	h["base"] = commit("base.txt", "base")
	checkout("wip", true)
	h["t2"] = commit("wip.txt", "t2")
	checkout("master", false)
	checkout("topic", true)
	h["t1"] = commit("topic.txt", "t1")
	checkout("master", false)
	h["m1"] = commit("main.txt", "m1")
	h["merge"] = commit("merge.txt", "merge", h["m1"], h["t1"])

	svc, err := NewService(backend.NewNative(repo, "mem"))
	require.NoError(t, err)
	return svc, h
}

func asHistory(commits []*Commit) []history.Commit {
	out := make([]history.Commit, 0, len(commits))
	for _, c := range commits {
		out = append(out, c)
	}
	return out
}

func TestServiceFeedsHistory(t *testing.T) {
	svc, h := forkedRepo(t)

	commits, head, more, err := svc.ScanCommits(0, 100)
	require.NoError(t, err)
	assert.Equal(t, "master", head)
	assert.False(t, more)
	require.Len(t, commits, 4)
	assert.Equal(t, h["merge"].String(), commits[0].Hash)

	hist := history.New(history.WithBatchSize(2), history.WithProvider(svc))
	hist.AppendMany(asHistory(commits))
	hist.ProcessBatches(hist.Len() - 1)
	hist.Wait()
	require.Equal(t, 4, hist.BatchStart())

	merge, ok := hist.Row(0)
	require.True(t, ok)
	require.Len(t, merge.Lines, 2)
	assert.Equal(t, history.Dot{Lane: 0, Color: 0}, merge.Dot)
	assert.NotEqual(t, merge.Lines[0].Color, merge.Lines[1].Color)

	last, ok := hist.Row(3)
	require.True(t, ok)
	assert.Equal(t, history.CommitID(h["base"].String()), last.Commit.ID())
	assert.Equal(t, history.Lane(0), last.Dot.Lane)
}

func TestBranchHeadsGrowHistory(t *testing.T) {
	svc, h := forkedRepo(t)

	heads, err := svc.BranchHeads(false)
	require.NoError(t, err)
	require.NotEmpty(t, heads)
	assert.Equal(t, h["merge"].String(), heads[0].Hash)

	hist := history.New(history.WithProvider(svc))
	added := 0
	for _, c := range heads {
		added += hist.Grow(c, nil)
	}
	assert.Equal(t, 5, added)
	assert.Equal(t, 5, hist.Len())

	idx := func(name string) int {
		i, ok := hist.Index(history.CommitID(h[name].String()))
		require.True(t, ok, name)
		return i
	}
	assert.Less(t, idx("merge"), idx("m1"))
	assert.Less(t, idx("merge"), idx("t1"))
	assert.Less(t, idx("t1"), idx("base"))
	assert.Less(t, idx("m1"), idx("base"))
	assert.Less(t, idx("t2"), idx("base"))

	hist.ProcessBatches(hist.Len() - 1)
	hist.Wait()
	for i := range hist.Len() {
		row, _ := hist.Row(i)
		assert.True(t, row.HasDot, "row %d", i)
	}
}
