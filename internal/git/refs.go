package git

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
)

// BranchLabels maps commit hashes to the decorations shown next to them:
// "HEAD -> main" first, then branches, remote branches and "tag: v1".
func (s *Service) BranchLabels() (map[string][]string, error) {
	labels := map[string][]string{}
	if s.backend.RepoPath() == "" {
		return labels, nil
	}

	refs, err := s.backend.ListRefs()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Hash == "" || ref.Name == "" {
			continue
		}
		if ref.Kind == backend.RefKindRemoteBranch && strings.HasSuffix(ref.Name, "/HEAD") {
			continue
		}
		label := ref.Name
		if ref.Kind == backend.RefKindTag {
			label = fmt.Sprintf("tag: %s", ref.Name)
		}
		labels[ref.Hash] = append(labels[ref.Hash], label)
	}

	headHash, headName, ok, err := s.backend.HeadState()
	if err != nil {
		return nil, err
	}
	if ok && headHash != "" {
		label := "HEAD"
		if headName != "" && headName != "HEAD" {
			label = fmt.Sprintf("HEAD -> %s", headName)
		}
		labels[headHash] = append([]string{label}, labels[headHash]...)
	}
	return labels, nil
}

// BranchHeads returns the commits at the tip of HEAD and of every branch,
// HEAD first and the rest sorted by name, without duplicates. Remote branches
// are included when remotes is set.
func (s *Service) BranchHeads(remotes bool) ([]*Commit, error) {
	refs, err := s.backend.ListRefs()
	if err != nil {
		return nil, err
	}
	refs = slices.DeleteFunc(refs, func(r backend.Ref) bool {
		switch r.Kind {
		case backend.RefKindBranch:
			return false
		case backend.RefKindRemoteBranch:
			return !remotes || strings.HasSuffix(r.Name, "/HEAD")
		default:
			return true
		}
	})
	slices.SortFunc(refs, func(a, b backend.Ref) int {
		if a.Kind != b.Kind {
			return cmp.Compare(a.Kind, b.Kind)
		}
		return strings.Compare(a.Name, b.Name)
	})

	hashes := make([]string, 0, len(refs)+1)
	headHash, _, ok, err := s.backend.HeadState()
	if err != nil {
		return nil, err
	}
	if ok {
		hashes = append(hashes, headHash)
	}
	for _, r := range refs {
		hashes = append(hashes, r.Hash)
	}

	seen := make(map[string]struct{}, len(hashes))
	heads := make([]*Commit, 0, len(hashes))
	for _, hash := range hashes {
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		c, err := s.Lookup(hash)
		if err != nil {
			if errors.Is(err, backend.ErrCommitNotFound) {
				s.logger.Debug("skipping branch head", slog.String("hash", hash), slog.Any("error", err))
				continue
			}
			return nil, err
		}
		heads = append(heads, c)
	}
	return heads, nil
}
