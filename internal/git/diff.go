package git

import (
	"errors"
	"strconv"
	"strings"
)

// FileSection points at the "diff --git" line of one file in a rendered diff.
// Line is 1-based.
type FileSection struct {
	Path string
	Line int
}

// Diff renders the commit header followed by the patch against its first
// parent, and returns where each file starts in the result.
func (s *Service) Diff(commit *Commit) (string, []FileSection, error) {
	if commit == nil {
		return "", nil, errors.New("commit not specified")
	}
	header := FormatCommitHeader(commit)
	var parent string
	if len(commit.ParentHashes) > 0 {
		parent = commit.ParentHashes[0]
	}
	diffText, err := s.backend.CommitDiffText(commit.Hash, parent)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(diffText) == "" {
		return header + "\nNo file level changes.", nil, nil
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		b.WriteByte('\n')
	}
	sections := parseGitDiffSections(diffText, strings.Count(header, "\n"))
	return b.String(), sections, nil
}

func parseGitDiffSections(diffText string, lineOffset int) []FileSection {
	var sections []FileSection
	for i, line := range strings.Split(diffText, "\n") {
		if path := parseGitDiffPath(line); path != "" {
			sections = append(sections, FileSection{Path: path, Line: lineOffset + i + 1})
		}
	}
	return sections
}

// parseGitDiffPath returns the destination path of a "diff --git a/x b/x"
// line, or "" for any other line.
func parseGitDiffPath(line string) string {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return ""
	}
	tokens := diffLineTokens(rest)
	if len(tokens) < 2 {
		return ""
	}
	return strings.TrimPrefix(tokens[1], "b/")
}

// diffLineTokens splits on blanks, honouring the C-style quoting git uses for
// paths with spaces or special characters.
func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return tokens
		}
		if s[0] != '"' {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			tokens = append(tokens, strings.TrimPrefix(s[:end], "a/"))
			s = s[end:]
			continue
		}
		end := closingQuote(s)
		quoted := s[:end]
		if unquoted, err := strconv.Unquote(quoted); err == nil {
			tokens = append(tokens, strings.TrimPrefix(unquoted, "a/"))
		} else {
			tokens = append(tokens, strings.TrimPrefix(strings.Trim(quoted, `"`), "a/"))
		}
		s = s[end:]
	}
}

// closingQuote returns the index just past the quote closing s[0], or len(s).
func closingQuote(s string) int {
	escaped := false
	for i := 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return i + 1
		}
	}
	return len(s)
}
