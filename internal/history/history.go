// Package history lays out a commit graph for a history browser.
//
// Rows are appended in display order (descendants before ancestors) and laid
// out incrementally: a single background loop walks the rows in fixed-size
// batches, threads the open edges through each batch and then computes the
// per-row Lines in parallel. Callers read rows concurrently through Row.
package history

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const DefaultBatchSize = 500

// Dispatcher runs fn on the context progress observers expect, e.g. a UI
// event loop. It must not block on the history.
type Dispatcher func(fn func())

type Option func(*History)

func WithBatchSize(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.batchSize = n
		}
	}
}

// WithWorkers bounds the number of rows laid out in parallel.
func WithWorkers(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.workers = n
		}
	}
}

// WithProgress registers fn to be called with the [start, end) row range of
// every committed batch.
func WithProgress(fn func(start, end int)) Option {
	return func(h *History) { h.progress = fn }
}

func WithDispatcher(d Dispatcher) Option {
	return func(h *History) {
		if d != nil {
			h.dispatch = d
		}
	}
}

func WithProvider(p Provider) Option {
	return func(h *History) { h.provider = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// History owns the ordered rows and the layout state.
type History struct {
	batchSize int
	workers   int
	progress  func(start, end int)
	dispatch  Dispatcher
	provider  Provider
	logger    *slog.Logger

	abortFlag atomic.Bool

	// mu guards everything below, including the Lines and dot of every entry.
	mu      sync.Mutex
	entries []*entry
	lookup  map[CommitID]*entry

	batchStart int
	// target is the last row the loop must lay out, or -1 when idle.
	target   int
	running  bool
	loopDone chan struct{}

	// carry and nextColor are the Connection Tracker state committed by the
	// last finished batch.
	carry     []Connection
	nextColor uint

	// generation changes on every Reset or rewind so batches started before
	// it drop their results.
	generation uint64
}

func New(opts ...Option) *History {
	h := &History{
		batchSize: DefaultBatchSize,
		workers:   runtime.GOMAXPROCS(0),
		dispatch:  func(fn func()) { fn() },
		lookup:    make(map[CommitID]*entry),
		target:    -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With(slog.String("history", uuid.NewString()[:8]))
	return h
}

func (h *History) BatchSize() int {
	return h.batchSize
}

// Append adds c at the end of the list without laying it out. Commits that
// are already present are ignored.
func (h *History) Append(c Commit) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.appendLocked(c)
}

// AppendMany appends commits in order and reports how many were new.
func (h *History) AppendMany(commits []Commit) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	added := 0
	for _, c := range commits {
		if h.appendLocked(c) {
			added++
		}
	}
	return added
}

func (h *History) appendLocked(c Commit) bool {
	if c == nil {
		return false
	}
	id := c.ID()
	if _, ok := h.lookup[id]; ok {
		return false
	}
	e := newEntry(c)
	h.entries = append(h.entries, e)
	h.lookup[id] = e
	return true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Row returns a copy of row i. Out-of-range indexes report false.
func (h *History) Row(i int) (Row, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.entries) {
		return Row{}, false
	}
	return h.entries[i].rowLocked(), true
}

// Rows returns copies of the rows in [start, end), clamped to the list.
func (h *History) Rows(start, end int) []Row {
	h.mu.Lock()
	defer h.mu.Unlock()
	start = max(start, 0)
	end = min(end, len(h.entries))
	if start >= end {
		return nil
	}
	rows := make([]Row, 0, end-start)
	for _, e := range h.entries[start:end] {
		rows = append(rows, e.rowLocked())
	}
	return rows
}

func (h *History) Contains(id CommitID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.lookup[id]
	return ok
}

// Index returns the row number of id.
func (h *History) Index(id CommitID) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indexLocked(id)
}

func (h *History) indexLocked(id CommitID) (int, bool) {
	if _, ok := h.lookup[id]; !ok {
		return 0, false
	}
	for i, e := range h.entries {
		if e.id() == id {
			return i, true
		}
	}
	return 0, false
}

// BatchStart is the first row not yet laid out.
func (h *History) BatchStart() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.batchStart
}

// Reset clears the list and all layout state. A batch in flight notices the
// abort flag or the generation change and drops its results.
func (h *History) Reset() {
	h.Abort()
	h.mu.Lock()
	h.entries = nil
	h.lookup = make(map[CommitID]*entry)
	h.batchStart = 0
	h.target = -1
	h.carry = nil
	h.nextColor = 0
	h.generation++
	h.mu.Unlock()
	h.ResetAbort()
	h.logger.Debug("history reset")
}

// Abort asks the running loop to stop. Rows already scheduled finish; the
// interrupted batch is not committed and will be redone on the next request.
func (h *History) Abort() {
	h.abortFlag.Store(true)
}

func (h *History) ResetAbort() {
	h.abortFlag.Store(false)
}

func (h *History) aborted() bool {
	return h.abortFlag.Load()
}

// rewindLocked discards layout progress so the next request starts over.
func (h *History) rewindLocked() {
	h.batchStart = 0
	h.carry = nil
	h.nextColor = 0
	h.generation++
	for _, e := range h.entries {
		e.clearLayoutLocked()
	}
}
