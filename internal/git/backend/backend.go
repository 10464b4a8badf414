package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCommitNotFound is returned by ResolveCommit when the object does not
// exist or is not a commit.
var ErrCommitNotFound = errors.New("commit not found")

// Backend abstracts access to repository data.
//
// Two implementations exist: a pure-Go one built on go-git and one that shells
// out to the git executable. Callers should not depend on which one is in use.
type Backend interface {
	RepoPath() string
	// StartLogStream walks history from fromHash, children before parents.
	StartLogStream(fromHash string) (LogStream, error)

	HeadState() (hash string, headName string, ok bool, err error)
	ListRefs() ([]Ref, error)
	ResolveCommit(hash string) (*Commit, error)

	// CommitDiffText returns the unified diff between parentHash and
	// commitHash, or the full patch of commitHash when parentHash is empty.
	CommitDiffText(commitHash string, parentHash string) (string, error)
}

// LogStream yields commits until it returns io.EOF.
type LogStream interface {
	Next() (*Commit, error)
	Close() error
}

type Kind uint8

const (
	KindNative Kind = iota
	KindCLI
)

func (k Kind) String() string {
	switch k {
	case KindCLI:
		return "cli"
	default:
		return "native"
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "go-git":
		return KindNative, nil
	case "cli", "git":
		return KindCLI, nil
	default:
		return KindNative, fmt.Errorf("unknown backend %q (want native or cli)", s)
	}
}

// Open opens the repository containing repoPath with the requested backend.
func Open(kind Kind, repoPath string) (Backend, error) {
	switch kind {
	case KindCLI:
		return OpenCLI(repoPath)
	default:
		return OpenNative(repoPath)
	}
}
