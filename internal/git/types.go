package git

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/history"
)

// Commit is a backend commit prepared for display. It implements
// history.Commit.
type Commit struct {
	*backend.Commit

	Summary    string
	SearchText string

	parents []history.CommitID
}

var _ history.Commit = (*Commit)(nil)

func newCommit(c *backend.Commit) *Commit {
	parents := make([]history.CommitID, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, history.CommitID(p))
	}
	var b strings.Builder
	for i, part := range []string{c.Hash, c.Author.Name, c.Author.Email, c.Message} {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(part))
	}
	return &Commit{
		Commit:     c,
		Summary:    formatSummary(c),
		SearchText: b.String(),
		parents:    parents,
	}
}

func (c *Commit) ID() history.CommitID {
	return history.CommitID(c.Hash)
}

func (c *Commit) ParentIDs() []history.CommitID {
	return c.parents
}

// ShortHash returns the first seven characters of the hash.
func (c *Commit) ShortHash() string {
	if len(c.Hash) <= 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

// Matches reports whether the lowercase search text contains query.
func (c *Commit) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	return query == "" || strings.Contains(c.SearchText, query)
}

func formatSummary(c *backend.Commit) string {
	subject := c.Subject()
	if len(subject) > 80 {
		subject = subject[:77] + "..."
	}
	hash := c.Hash
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return fmt.Sprintf("%s  %s  %s", hash, c.Committer.When.Format("2006-01-02 15:04"), subject)
}

// FormatCommitHeader renders commit metadata the way git show does.
func FormatCommitHeader(c *Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	if len(c.ParentHashes) > 1 {
		fmt.Fprintf(&b, "Merge: %s\n", strings.Join(shortHashes(c.ParentHashes), " "))
	}
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig backend.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}

func shortHashes(hashes []string) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if len(h) > 7 {
			h = h[:7]
		}
		out = append(out, h)
	}
	return out
}
