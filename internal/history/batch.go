package history

import (
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProcessFirstBatch lays out the first batch of rows, typically right after
// the initial append.
func (h *History) ProcessFirstBatch() {
	h.ProcessBatches(h.batchSize - 1)
}

// ProcessBatches makes sure rows up to and including throughRow get laid out.
// If a loop is already running only its target is raised; otherwise a new
// loop is started in the background.
func (h *History) ProcessBatches(throughRow int) {
	if throughRow < 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if throughRow <= h.target {
		return
	}
	h.target = throughRow
	if h.running {
		return
	}
	h.running = true
	done := make(chan struct{})
	h.loopDone = done
	h.logger.Debug("batch loop start",
		slog.Int("batch_start", h.batchStart),
		slog.Int("target", h.target),
	)
	go h.processLoop(done)
}

// Processing reports whether the background loop is running.
func (h *History) Processing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Wait blocks until the current background loop, if any, has exited.
func (h *History) Wait() {
	h.mu.Lock()
	done := h.loopDone
	h.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (h *History) processLoop(done chan struct{}) {
	defer close(done)
	for h.batchPending() {
		h.ProcessNextConnectionBatch()
	}
}

// batchPending marks the loop idle when there is nothing left to do, so a
// caller raising the target afterwards starts a fresh loop.
func (h *History) batchPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.aborted() && h.batchStart <= h.target && h.batchStart < len(h.entries) {
		return true
	}
	h.logger.Debug("batch loop idle",
		slog.Int("batch_start", h.batchStart),
		slog.Int("rows", len(h.entries)),
		slog.Bool("aborted", h.aborted()),
	)
	h.running = false
	h.target = -1
	return false
}

// ProcessNextConnectionBatch lays out the batch starting at BatchStart and
// blocks until it is done. It reports whether the batch was committed; an
// aborted batch, or one overtaken by Reset, leaves the state untouched.
//
// It must not run concurrently with the background loop.
func (h *History) ProcessNextConnectionBatch() bool {
	h.mu.Lock()
	start := h.batchStart
	size := min(h.batchSize, len(h.entries)-start)
	if size <= 0 {
		h.mu.Unlock()
		return false
	}
	rows := slices.Clone(h.entries[start : start+size])
	carry := h.carry
	nextColor := h.nextColor
	gen := h.generation
	h.mu.Unlock()

	began := time.Now()
	connections, newCarry, newNextColor := generateConnections(rows, carry, nextColor)
	h.logger.Debug("connections generated",
		slog.Int("start", start),
		slog.Int("size", size),
		slog.Int("open", len(newCarry)),
		slog.Duration("elapsed", time.Since(began)),
	)

	began = time.Now()
	var g errgroup.Group
	g.SetLimit(h.workers)
	scheduled := 0
	for i, e := range rows {
		if h.aborted() {
			break
		}
		scheduled++
		g.Go(func() error {
			lines, dot, hasDot := generateLines(e.id(), connections[i])
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.generation == gen {
				e.setLayoutLocked(lines, dot, hasDot)
			}
			return nil
		})
	}
	_ = g.Wait()

	if scheduled < len(rows) {
		h.logger.Debug("batch aborted",
			slog.Int("start", start),
			slog.Int("scheduled", scheduled),
		)
		return false
	}
	if h.stale(gen) {
		return false
	}
	h.logger.Debug("lines generated",
		slog.Int("start", start),
		slog.Int("size", size),
		slog.Duration("elapsed", time.Since(began)),
	)
	h.reportProgress(start, start+size)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen {
		return false
	}
	h.carry = newCarry
	h.nextColor = newNextColor
	h.batchStart = start + size
	return true
}

func (h *History) stale(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation != gen
}

func (h *History) reportProgress(start, end int) {
	if h.progress == nil {
		return
	}
	progress := h.progress
	h.dispatch(func() {
		progress(start, end)
	})
}
