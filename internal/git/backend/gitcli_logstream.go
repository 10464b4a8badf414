package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// logFormat prints NUL-terminated records; a commit message cannot contain NUL.
const logFormat = "%H%n%P%n%an%n%ae%n%aI%n%cn%n%ce%n%cI%n%B%x00"

type gitLogStream struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	r      *bufio.Reader

	waitOnce sync.Once
	waitErr  error
}

// StartLogStream runs git log in date order, which never shows a parent
// before any of its children.
func (g *gitCLI) StartLogStream(fromHash string) (LogStream, error) {
	if g == nil || g.path == "" {
		return nil, errors.New("repository root not set")
	}
	fromHash = strings.TrimSpace(fromHash)
	if fromHash == "" {
		return nil, errors.New("starting commit not specified")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(
		ctx,
		"git",
		"--no-pager",
		"-C",
		g.path,
		"log",
		"--no-color",
		"--no-decorate",
		"--date-order",
		"--no-patch",
		// tformat terminates records instead of separating them.
		"--pretty=tformat:"+logFormat,
		fromHash,
		"--",
	)
	stream := &gitLogStream{cancel: cancel, cmd: cmd}
	cmd.Stderr = &stream.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("git log stdout: %w", err)
	}
	stream.stdout = stdout
	stream.r = bufio.NewReader(stdout)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		if msg := strings.TrimSpace(stream.stderr.String()); msg != "" {
			return nil, fmt.Errorf("git log start: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("git log start: %w", err)
	}
	return stream, nil
}

func (s *gitLogStream) Next() (*Commit, error) {
	rec, err := s.r.ReadBytes(0)
	if err != nil {
		if err != io.EOF {
			return nil, err
		}
		if len(bytes.TrimSpace(rec)) > 0 {
			return nil, fmt.Errorf("truncated git log record")
		}
		if waitErr := s.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, io.EOF
	}
	return parseGitLogRecord(trimRecord(rec))
}

func (s *gitLogStream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	err := s.wait()
	if errors.Is(err, context.Canceled) || isKilled(err) {
		return nil
	}
	return err
}

func (s *gitLogStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	if s.waitErr == nil {
		return nil
	}
	if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
		return fmt.Errorf("git log: %w: %s", s.waitErr, msg)
	}
	return fmt.Errorf("git log: %w", s.waitErr)
}

// isKilled reports whether err comes from a process stopped by Close.
func isKilled(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return !exitErr.Exited()
}

// trimRecord drops the NUL terminator and the newline git prints between
// records.
func trimRecord(rec []byte) []byte {
	rec = bytes.TrimSuffix(rec, []byte{0})
	return bytes.TrimLeft(rec, "\r\n")
}

func parseGitLogRecord(rec []byte) (*Commit, error) {
	if len(rec) == 0 {
		return nil, errors.New("unexpected empty git log record")
	}
	parts := strings.SplitN(string(rec), "\n", 9)
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected git log record: got %d lines", len(parts))
	}
	hash := strings.TrimSpace(parts[0])
	if hash == "" {
		return nil, errors.New("missing commit hash")
	}
	commit := &Commit{
		Hash:         hash,
		ParentHashes: strings.Fields(parts[1]),
		Author:       parseSignature(parts[2], parts[3], parts[4]),
		Committer:    parseSignature(parts[5], parts[6], parts[7]),
	}
	if len(parts) == 9 {
		commit.Message = parts[8]
	}
	return commit, nil
}

func parseSignature(name, email, when string) Signature {
	t, _ := time.Parse(time.RFC3339, strings.TrimSpace(when))
	return Signature{Name: name, Email: email, When: t}
}
