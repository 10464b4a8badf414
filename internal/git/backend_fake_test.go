package git

import (
	"errors"
	"io"
	"testing"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
)

type fakeBackend struct {
	repoPath string

	headStateFunc      func() (hash string, headName string, ok bool, err error)
	listRefsFunc       func() ([]backend.Ref, error)
	resolveCommitFunc  func(hash string) (*backend.Commit, error)
	commitDiffTextFunc func(commitHash string, parentHash string) (string, error)
	startLogStreamFunc func(fromHash string) (backend.LogStream, error)

	lastCommitHash string
	lastParentHash string
	resolveCalls   int
	streamsStarted int
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) StartLogStream(fromHash string) (backend.LogStream, error) {
	f.streamsStarted++
	if f.startLogStreamFunc != nil {
		return f.startLogStreamFunc(fromHash)
	}
	return nil, errors.New("unexpected StartLogStream call")
}

func (f *fakeBackend) HeadState() (hash string, headName string, ok bool, err error) {
	if f.headStateFunc != nil {
		return f.headStateFunc()
	}
	return "", "", false, errors.New("unexpected HeadState call")
}

func (f *fakeBackend) ListRefs() ([]backend.Ref, error) {
	if f.listRefsFunc != nil {
		return f.listRefsFunc()
	}
	return nil, errors.New("unexpected ListRefs call")
}

func (f *fakeBackend) ResolveCommit(hash string) (*backend.Commit, error) {
	f.resolveCalls++
	if f.resolveCommitFunc != nil {
		return f.resolveCommitFunc(hash)
	}
	return nil, errors.New("unexpected ResolveCommit call")
}

func (f *fakeBackend) CommitDiffText(commitHash string, parentHash string) (string, error) {
	f.lastCommitHash = commitHash
	f.lastParentHash = parentHash
	if f.commitDiffTextFunc != nil {
		return f.commitDiffTextFunc(commitHash, parentHash)
	}
	return "", errors.New("unexpected CommitDiffText call")
}

// sliceStream replays commits and then io.EOF.
type sliceStream struct {
	commits []*backend.Commit
	pos     int
	closed  bool
}

func (s *sliceStream) Next() (*backend.Commit, error) {
	if s.closed {
		return nil, errors.New("stream closed")
	}
	if s.pos >= len(s.commits) {
		return nil, io.EOF
	}
	c := s.commits[s.pos]
	s.pos++
	return c, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func newTestService(t *testing.T, b backend.Backend) *Service {
	t.Helper()
	svc, err := NewService(b)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}
