// Package writer implements the editor-side role: it turns focus and
// selection changes into debounced commits of the shared selection file.
package writer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// DefaultDebounce is the trailing-edge debounce window for selection bursts.
const DefaultDebounce = 100 * time.Millisecond

// Writer publishes the local editor's focus state to the shared file. One
// Writer per editor integration; the IDE tag is fixed at construction.
//
// Commits are debounced trailing-edge: each change cancels and restarts the
// pending timer, so only the last state of a burst reaches the file. Write
// failures are swallowed — losing one update is fine because the next change
// overwrites it.
type Writer struct {
	st       *store.Store
	ide      string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *selection.Record
}

// New returns a Writer for the given store and IDE tag. debounce <= 0 falls
// back to DefaultDebounce.
func New(st *store.Store, ide string, debounce time.Duration) *Writer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Writer{st: st, ide: ide, debounce: debounce}
}

// Update records a focus or selection change and schedules a debounced
// commit. selected empty means the file is focused with nothing selected;
// the line range is attached only when selected is non-empty.
func (w *Writer) Update(file, selected string, startLine, endLine int) {
	rec := selection.New(w.ide, file, selected, startLine, endLine)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = rec
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.commitPending)
}

// UpdateNow commits immediately, bypassing the debounce. Used for
// intentional user-triggered sends where latency matters more than
// coalescing. Any pending debounced commit is superseded.
func (w *Writer) UpdateNow(file, selected string, startLine, endLine int) {
	rec := selection.New(w.ide, file, selected, startLine, endLine)

	w.mu.Lock()
	w.cancelPendingLocked()
	w.mu.Unlock()

	w.commit(rec)
}

// FocusLost cancels any pending commit and deletes the shared file: no
// editor or file is active, so there is no current record.
func (w *Writer) FocusLost() {
	w.mu.Lock()
	w.cancelPendingLocked()
	w.mu.Unlock()

	if err := w.st.Delete(); err != nil {
		slog.Warn("writer: focus-lost delete failed", "err", err)
	}
}

// Clear deletes the shared file regardless of focus state. Used for
// explicit user-initiated clearing and process-exit cleanup.
func (w *Writer) Clear() {
	w.mu.Lock()
	w.cancelPendingLocked()
	w.mu.Unlock()

	if err := w.st.Delete(); err != nil {
		slog.Warn("writer: clear failed", "err", err)
	}
}

// Close cancels any pending commit without touching the shared file.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelPendingLocked()
}

// commitPending fires from the debounce timer.
func (w *Writer) commitPending() {
	w.mu.Lock()
	rec := w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()

	if rec == nil {
		return
	}
	w.commit(rec)
}

func (w *Writer) commit(rec *selection.Record) {
	if err := w.st.Write(rec); err != nil {
		slog.Warn("writer: commit failed", "err", err)
	}
}

// cancelPendingLocked drops the pending record and stops the timer.
// Caller holds w.mu.
func (w *Writer) cancelPendingLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
}
