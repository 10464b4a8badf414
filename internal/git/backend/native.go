package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type native struct {
	repo *gitlib.Repository
	path string
}

// OpenNative returns a pure-Go Backend for the repository containing
// repoPath.
func OpenNative(repoPath string) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return NewNative(repo, root), nil
}

// NewNative wraps an already opened repository, e.g. one backed by memory
// storage. path is reported by RepoPath.
func NewNative(repo *gitlib.Repository, path string) Backend {
	return &native{repo: repo, path: path}
}

func (n *native) RepoPath() string {
	return n.path
}

// StartLogStream walks in committer time order. Unlike git log --date-order
// this is not strictly topological when clocks are skewed.
func (n *native) StartLogStream(fromHash string) (LogStream, error) {
	fromHash = strings.TrimSpace(fromHash)
	if fromHash == "" {
		return nil, errors.New("starting commit not specified")
	}
	iter, err := n.repo.Log(&gitlib.LogOptions{
		From:  plumbing.NewHash(fromHash),
		Order: gitlib.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	return &nativeLogStream{iter: iter}, nil
}

type nativeLogStream struct {
	iter object.CommitIter
}

func (s *nativeLogStream) Next() (*Commit, error) {
	c, err := s.iter.Next()
	if err != nil {
		return nil, err
	}
	return fromObject(c), nil
}

func (s *nativeLogStream) Close() error {
	s.iter.Close()
	return nil
}

func (n *native) HeadState() (hash string, headName string, ok bool, err error) {
	ref, err := n.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	headName = "HEAD"
	if ref.Name().IsBranch() {
		headName = ref.Name().Short()
	}
	return ref.Hash().String(), headName, true, nil
}

func (n *native) ListRefs() ([]Ref, error) {
	iter, err := n.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		r, ok := classifyRef(ref.Name().String())
		if !ok {
			return nil
		}
		hash := ref.Hash()
		if r.Kind == RefKindTag {
			if peeled, ok := n.peelTag(hash); ok {
				hash = peeled
			}
		}
		r.Hash = hash.String()
		refs = append(refs, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// peelTag follows annotated tags down to the commit they name. Lightweight
// tags already point at the commit.
func (n *native) peelTag(hash plumbing.Hash) (plumbing.Hash, bool) {
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return cur, cur != hash
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func (n *native) ResolveCommit(hash string) (*Commit, error) {
	c, err := n.commitObject(hash)
	if err != nil {
		return nil, err
	}
	return fromObject(c), nil
}

func (n *native) commitObject(hash string) (*object.Commit, error) {
	hash = strings.TrimSpace(hash)
	if !plumbing.IsHash(hash) {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	c, err := n.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
		}
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return c, nil
}

func (n *native) CommitDiffText(commitHash string, parentHash string) (string, error) {
	if strings.TrimSpace(commitHash) == "" {
		return "", errors.New("commit not specified")
	}
	commit, err := n.commitObject(commitHash)
	if err != nil {
		return "", err
	}
	to, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("read tree: %w", err)
	}
	// A root commit is diffed against the empty tree.
	from := &object.Tree{}
	if strings.TrimSpace(parentHash) != "" {
		parent, err := n.commitObject(parentHash)
		if err != nil {
			return "", err
		}
		if from, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("read tree: %w", err)
		}
	}
	patch, err := from.Patch(to)
	if err != nil {
		return "", fmt.Errorf("diff trees: %w", err)
	}
	return patch.String(), nil
}

func fromObject(c *object.Commit) *Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}
}
