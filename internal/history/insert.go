package history

import (
	"log/slog"
	"slices"
)

// segment is a run of single-parent commits collected by Grow, plus the
// merge parents discovered along the way.
type segment struct {
	entries []*entry
	queue   []queuedBranch
}

type queuedBranch struct {
	commit Commit
	after  Commit
}

type growth struct {
	lowest int
}

// Grow adds start and every ancestor reachable from it that is not in the
// list yet, resolving parents through the Provider. New branch segments are
// spliced in with a placement heuristic:
//
//  1. before the first existing row that is a parent of the segment's last
//     commit;
//  2. after the last row placed for the most recent sibling branch;
//  3. after the row of after, when given;
//  4. at the end.
//
// The result is best-effort: branches discovered out of order can still end
// up with a parent above a child. If rows are spliced above BatchStart the
// layout progress is rewound: BatchStart drops back to 0 and every row is
// laid out again on the next request. This is the only way BatchStart
// decreases other than Reset. Grow returns the number of rows added.
func (h *History) Grow(start Commit, after Commit) int {
	if h.provider == nil || start == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	before := len(h.entries)
	g := growth{lowest: before}
	h.growLocked(start, after, &g)
	added := len(h.entries) - before
	if added > 0 && g.lowest < h.batchStart {
		h.logger.Debug("grow rewinds layout",
			slog.Int("insert_at", g.lowest),
			slog.Int("batch_start", h.batchStart),
		)
		h.rewindLocked()
	}
	return added
}

// growLocked returns the id of the last row it placed, if any.
func (h *History) growLocked(start Commit, after Commit, g *growth) (CommitID, bool) {
	if _, ok := h.lookup[start.ID()]; ok {
		return "", false
	}
	var segments []segment
	for {
		seg := h.branchSegmentLocked(start)
		segments = append(segments, seg)
		parents := seg.last().ParentIDs()
		if len(parents) == 0 {
			break
		}
		if _, ok := h.lookup[parents[0]]; ok {
			break
		}
		next, ok := h.provider.Resolve(parents[0])
		if !ok {
			break
		}
		start = next
	}

	var (
		lastPlaced CommitID
		placed     bool
	)
	for i := len(segments) - 1; i >= 0; i-- {
		if h.aborted() {
			break
		}
		seg := segments[i]
		var (
			sibling    CommitID
			hasSibling bool
		)
		for j := len(seg.queue) - 1; j >= 0; j-- {
			q := seg.queue[j]
			if id, ok := h.growLocked(q.commit, q.after, g); ok {
				sibling, hasSibling = id, true
			}
		}
		h.placeLocked(seg, after, sibling, hasSibling, g)
		lastPlaced, placed = seg.last().ID(), true
	}
	return lastPlaced, placed
}

// branchSegmentLocked follows first parents from start until a root, a merge,
// an already listed parent or an unresolvable parent.
func (h *History) branchSegmentLocked(start Commit) segment {
	seg := segment{entries: []*entry{newEntry(start)}}
	commit := start
	for {
		parents := commit.ParentIDs()
		if len(parents) == 0 {
			break
		}
		for _, id := range parents[1:] {
			if parent, ok := h.provider.Resolve(id); ok {
				seg.queue = append(seg.queue, queuedBranch{commit: parent, after: commit})
			}
		}
		if len(parents) > 1 {
			break
		}
		if _, ok := h.lookup[parents[0]]; ok {
			break
		}
		parent, ok := h.provider.Resolve(parents[0])
		if !ok {
			break
		}
		seg.entries = append(seg.entries, newEntry(parent))
		commit = parent
	}
	return seg
}

func (h *History) placeLocked(seg segment, after Commit, sibling CommitID, hasSibling bool, g *growth) {
	for _, e := range seg.entries {
		h.lookup[e.id()] = e
	}
	at := -1
	for _, id := range seg.last().ParentIDs() {
		if idx, ok := h.indexLocked(id); ok && (at < 0 || idx < at) {
			at = idx
		}
	}
	if at < 0 && hasSibling {
		if idx, ok := h.indexLocked(sibling); ok {
			at = idx + 1
		}
	}
	if at < 0 && after != nil {
		if idx, ok := h.indexLocked(after.ID()); ok {
			at = idx + 1
		}
	}
	if at < 0 {
		at = len(h.entries)
	}
	h.entries = slices.Insert(h.entries, at, seg.entries...)
	g.lowest = min(g.lowest, at)
}

func (s segment) last() Commit {
	return s.entries[len(s.entries)-1].commit
}
