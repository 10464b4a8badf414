package backend

import (
	"errors"
	"fmt"
	"strings"
)

func (g *gitCLI) HeadState() (hash string, headName string, ok bool, err error) {
	out, err := g.git(gitRun{name: "git rev-parse", quietExit1: true}, "rev-parse", "-q", "--verify", "HEAD")
	if err != nil {
		return "", "", false, err
	}
	hash = strings.TrimSpace(out)
	if hash == "" {
		return "", "", false, nil
	}
	ref, err := g.git(gitRun{name: "git symbolic-ref", quietExit1: true}, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return "", "", false, err
	}
	headName = strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return hash, headName, true, nil
}

func (g *gitCLI) ResolveCommit(hash string) (*Commit, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, ErrCommitNotFound
	}
	out, err := g.git(gitRun{name: "git rev-parse", quietExit1: true}, "rev-parse", "-q", "--verify", hash+"^{commit}")
	if err != nil {
		return nil, err
	}
	full := strings.TrimSpace(out)
	if full == "" {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	out, err = g.git(gitRun{name: "git show"}, "show", "-s", "--no-color", "--pretty=tformat:"+logFormat, full)
	if err != nil {
		return nil, err
	}
	return parseGitLogRecord(trimRecord([]byte(strings.TrimRight(out, "\n"))))
}

func (g *gitCLI) CommitDiffText(commitHash string, parentHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	parentHash = strings.TrimSpace(parentHash)
	if commitHash == "" {
		return "", errors.New("commit not specified")
	}
	if parentHash != "" {
		return g.git(gitRun{name: "git diff", quietExit1: true}, "diff", "--no-color", parentHash, commitHash)
	}
	return g.git(gitRun{name: "git show"}, "show", "--no-color", "--pretty=format:", commitHash)
}

func (g *gitCLI) ListRefs() ([]Ref, error) {
	out, err := g.git(gitRun{name: "git show-ref", quietExit1: true}, "show-ref", "--dereference")
	if err != nil {
		return nil, err
	}
	return parseRefsFromShowRef(out)
}

// parseRefsFromShowRef reads `git show-ref --dereference` output. Annotated
// tags are reported with the hash of the commit they point to.
func parseRefsFromShowRef(out string) ([]Ref, error) {
	type shown struct {
		hash string
		name string
	}
	peeled := map[string]string{}
	var listed []shown

	for rawLine := range strings.SplitSeq(out, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		hash, name, found := strings.Cut(line, " ")
		name = strings.TrimSpace(name)
		if !found || hash == "" || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		if base, ok := strings.CutSuffix(name, "^{}"); ok {
			if base != "" {
				peeled[base] = hash
			}
			continue
		}
		listed = append(listed, shown{hash: hash, name: name})
	}

	var refs []Ref
	for _, s := range listed {
		ref, ok := classifyRef(s.name)
		if !ok {
			continue
		}
		ref.Hash = s.hash
		if ref.Kind == RefKindTag {
			if target, ok := peeled[s.name]; ok && target != "" {
				ref.Hash = target
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

var refPrefixes = []struct {
	prefix string
	kind   RefKind
}{
	{"refs/heads/", RefKindBranch},
	{"refs/remotes/", RefKindRemoteBranch},
	{"refs/tags/", RefKindTag},
}

func classifyRef(full string) (Ref, bool) {
	for _, p := range refPrefixes {
		if short, ok := strings.CutPrefix(full, p.prefix); ok && short != "" {
			return Ref{Kind: p.kind, Name: short}, true
		}
	}
	return Ref{}, false
}
