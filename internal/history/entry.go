package history

import "slices"

// entry is a row of the history list. Lines and dot are written by the layout
// workers and read by callers, always under History.mu.
type entry struct {
	commit Commit
	lines  []Line
	dot    Dot
	hasDot bool
}

func newEntry(c Commit) *entry {
	return &entry{commit: c}
}

func (e *entry) id() CommitID {
	return e.commit.ID()
}

// setLayoutLocked replaces the computed layout. Replacing rather than
// appending keeps a row that is laid out twice (after an abort) consistent.
func (e *entry) setLayoutLocked(lines []Line, dot Dot, hasDot bool) {
	e.lines = lines
	e.dot = dot
	e.hasDot = hasDot
}

func (e *entry) clearLayoutLocked() {
	e.lines = nil
	e.dot = Dot{}
	e.hasDot = false
}

func (e *entry) rowLocked() Row {
	return Row{
		Commit: e.commit,
		Lines:  slices.Clone(e.lines),
		Dot:    e.dot,
		HasDot: e.hasDot,
	}
}
