package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

type gitCLI struct {
	path string
}

// OpenCLI returns a Backend that runs the git executable found in PATH.
func OpenCLI(repoPath string) (Backend, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	probe := &gitCLI{path: abs}
	out, err := probe.git(gitRun{name: "git rev-parse"}, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return nil, errors.New("open repository: git rev-parse returned empty root")
	}
	return &gitCLI{path: root}, nil
}

func (g *gitCLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

type gitRun struct {
	// name prefixes error messages, e.g. "git show-ref".
	name string
	// quietExit1 treats a silent exit status 1 as success. git diff, show-ref
	// and rev-parse -q use it to signal "differences" or "nothing found".
	quietExit1 bool
}

func (g *gitCLI) git(run gitRun, args ...string) (string, error) {
	if g == nil || g.path == "" {
		return "", errors.New("repository root not set")
	}
	cmd := exec.Command("git", append([]string{"--no-pager", "-C", g.path}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	var exitErr *exec.ExitError
	if run.quietExit1 && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
		return stdout.String(), nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%s: %v: %s", run.name, err, msg)
	}
	return "", fmt.Errorf("%s: %w", run.name, err)
}
