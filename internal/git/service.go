package git

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/history"
)

const (
	DefaultBatch = 1000

	// DefaultCacheSize bounds the commits kept for Resolve.
	DefaultCacheSize = 20000
)

type Service struct {
	// mu serializes access to the scan session.
	mu sync.Mutex

	backend backend.Backend
	scan    *scanSession
	logger  *slog.Logger

	commits *lru.Cache[history.CommitID, *Commit]
}

var _ history.Provider = (*Service)(nil)

// Open opens the repository containing repoPath with the requested backend.
func Open(repoPath string, kind backend.Kind) (*Service, error) {
	b, err := backend.Open(kind, repoPath)
	if err != nil {
		return nil, err
	}
	return NewService(b)
}

func NewService(b backend.Backend) (*Service, error) {
	if b == nil {
		return nil, errors.New("backend not specified")
	}
	cache, err := lru.New[history.CommitID, *Commit](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("commit cache: %w", err)
	}
	logger := slog.Default().With(slog.String("repo", b.RepoPath()))
	return &Service{backend: b, commits: cache, logger: logger}, nil
}

func (s *Service) RepoPath() string {
	return s.backend.RepoPath()
}

// ScanCommits returns up to batch commits reachable from HEAD after skipping
// the first skip ones, along with the HEAD name and whether more commits
// follow. Consecutive calls with skip equal to the commits already returned
// continue the same walk.
func (s *Service) ScanCommits(skip, batch int) ([]*Commit, string, bool, error) {
	if batch <= 0 {
		batch = DefaultBatch
	}
	skip = max(skip, 0)
	s.logger.Debug("ScanCommits start", slog.Int("skip", skip), slog.Int("batch", batch))
	s.mu.Lock()
	defer s.mu.Unlock()

	headHash, headName, ok, err := s.backend.HeadState()
	if err != nil {
		return nil, "", false, err
	}
	if !ok {
		s.closeScanLocked()
		return nil, "", false, nil
	}
	if err := s.ensureScanSessionLocked(headHash, headName); err != nil {
		return nil, "", false, err
	}
	if skip != s.scan.returned {
		s.logger.Debug("ScanCommits reset session",
			slog.Int("requested_skip", skip),
			slog.Int("session_returned", s.scan.returned),
			slog.String("head", s.scan.headName),
		)
		if err := s.resetScanLocked(headHash, headName); err != nil {
			return nil, "", false, err
		}
		if err := s.scan.discard(skip); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, s.scan.headName, false, nil
			}
			return nil, "", false, fmt.Errorf("iterate commits: %w", err)
		}
	}

	commits := make([]*Commit, 0, batch)
	for len(commits) < batch {
		c, err := s.scan.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, "", false, fmt.Errorf("iterate commits: %w", err)
		}
		commit := newCommit(c)
		s.commits.Add(commit.ID(), commit)
		commits = append(commits, commit)
	}
	hasMore, err := s.scan.hasMore()
	if err != nil {
		return nil, "", false, err
	}
	s.logger.Debug("ScanCommits done",
		slog.Int("returned", len(commits)),
		slog.Int("session_returned", s.scan.returned),
		slog.Bool("has_more", hasMore),
		slog.String("head", s.scan.headName),
	)
	return commits, s.scan.headName, hasMore, nil
}

// Resolve implements history.Provider. Commits seen by ScanCommits are served
// from the cache.
func (s *Service) Resolve(id history.CommitID) (history.Commit, bool) {
	c, err := s.Lookup(string(id))
	if err != nil {
		if !errors.Is(err, backend.ErrCommitNotFound) {
			s.logger.Debug("resolve commit", slog.String("id", string(id)), slog.Any("error", err))
		}
		return nil, false
	}
	return c, true
}

// Lookup returns the commit named by hash.
func (s *Service) Lookup(hash string) (*Commit, error) {
	id := history.CommitID(hash)
	if c, ok := s.commits.Get(id); ok {
		return c, nil
	}
	bc, err := s.backend.ResolveCommit(hash)
	if err != nil {
		return nil, err
	}
	c := newCommit(bc)
	s.commits.Add(c.ID(), c)
	return c, nil
}

// Close stops the running scan, if any.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeScanLocked()
}

// Invalidate forgets cached commits and the scan position, e.g. after the
// repository changed on disk.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeScanLocked()
	s.commits.Purge()
}

func (s *Service) closeScanLocked() {
	if s.scan != nil {
		s.scan.close()
		s.scan = nil
	}
}
