package git

import "github.com/thiagokokada/gitk-graph/internal/git/backend"

// GitVersion reports the installed git executable, used by the CLI backend.
func GitVersion() (string, error) {
	return backend.GitVersion()
}

func MinGitVersion() string {
	return backend.MinGitVersion()
}
