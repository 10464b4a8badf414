package history

// CommitID identifies a commit. Backends use the full hex object name.
type CommitID string

// Commit is the part of a version-control commit the layout needs.
type Commit interface {
	ID() CommitID
	// ParentIDs returns the parents in order; the first parent is the
	// mainline. Zero parents is a root, more than one is a merge.
	ParentIDs() []CommitID
}

// Provider resolves commits by id. It is only used when growing the history
// from branch heads.
type Provider interface {
	Resolve(id CommitID) (Commit, bool)
}

// Lane is a column index in the rendered graph. NoLane marks a missing end.
type Lane int

const NoLane Lane = -1

func (l Lane) Valid() bool {
	return l >= 0
}

// Line is one edge segment crossing a row. A Line without ChildLane starts at
// this row; a Line without ParentLane ends at this row.
type Line struct {
	ChildLane  Lane
	ParentLane Lane
	Color      uint
}

// Dot is the marker for the row's own commit.
type Dot struct {
	Lane  Lane
	Color uint
}

// Connection is an open edge from an emitted child row to a parent that has
// not been reached yet.
type Connection struct {
	ParentID CommitID
	ChildID  CommitID
	Color    uint
}

// Row is a read-only copy of one history entry.
type Row struct {
	Commit Commit
	Lines  []Line
	// Dot is only meaningful when HasDot is set.
	Dot    Dot
	HasDot bool
}
