package git

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
)

// scanSession is one walk of history from a given HEAD.
type scanSession struct {
	head     string
	headName string

	stream backend.LogStream

	// buffered holds the commit read ahead by hasMore so next returns it first.
	buffered  *backend.Commit
	exhausted bool
	returned  int
}

func (s *Service) ensureScanSessionLocked(headHash, headName string) error {
	if s.scan != nil && s.scan.head == headHash {
		return nil
	}
	return s.resetScanLocked(headHash, headName)
}

func (s *Service) resetScanLocked(headHash, headName string) error {
	s.closeScanLocked()
	if s.backend.RepoPath() == "" {
		return errors.New("repository root not set")
	}
	stream, err := s.backend.StartLogStream(headHash)
	if err != nil {
		return err
	}
	s.scan = &scanSession{
		head:     headHash,
		headName: headName,
		stream:   stream,
	}
	s.logger.Debug("ScanCommits session initialized", slog.String("head", headName))
	return nil
}

func (s *scanSession) close() {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			slog.Debug("log stream close", slog.Any("error", err))
		}
	}
	s.stream = nil
	s.buffered = nil
	s.exhausted = true
}

// hasMore reads one commit ahead without counting it as returned.
func (s *scanSession) hasMore() (bool, error) {
	if s.exhausted {
		return false, nil
	}
	if s.buffered != nil {
		return true, nil
	}
	commit, err := s.stream.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.exhausted = true
			return false, nil
		}
		return false, fmt.Errorf("iterate commits: %w", err)
	}
	s.buffered = commit
	return true, nil
}

func (s *scanSession) next() (*backend.Commit, error) {
	if s.exhausted {
		return nil, io.EOF
	}
	if s.buffered != nil {
		commit := s.buffered
		s.buffered = nil
		s.returned++
		return commit, nil
	}
	commit, err := s.stream.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.exhausted = true
		}
		return nil, err
	}
	s.returned++
	return commit, nil
}

func (s *scanSession) discard(count int) error {
	for range count {
		if _, err := s.next(); err != nil {
			return err
		}
	}
	return nil
}
