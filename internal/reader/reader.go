// Package reader implements the assistant-side role: it watches the shared
// selection file and exposes the decoded, staleness-filtered current value.
package reader

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// DefaultPollInterval is the fallback poll cadence. Native change
// notification is not reliable on every platform/filesystem, so the poll
// bounds worst-case staleness at one interval.
const DefaultPollInterval = 500 * time.Millisecond

// Reader watches the shared selection file and holds the latest decoded
// record. Construct one per assistant session and pass it explicitly to
// display and insertion call sites; there is no ambient global.
//
// Two independent triggers — an fsnotify watch on the parent directory and
// a poll ticker — feed the same idempotent refresh. The refresh's own
// byte-comparison makes duplicate triggers harmless, so the two mechanisms
// need no coordination.
type Reader struct {
	st       *store.Store
	interval time.Duration
	onChange func(*selection.Record)

	mu      sync.Mutex
	lastRaw []byte
	current *selection.Record
	started bool
	stopped bool

	watcher *fsnotify.Watcher
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// New returns a Reader over st. interval <= 0 falls back to
// DefaultPollInterval. onChange, if non-nil, is invoked after every refresh
// that changes the held value; the argument is nil when the value became
// absent. It is called from the reader's own goroutine.
func New(st *store.Store, interval time.Duration, onChange func(*selection.Record)) *Reader {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Reader{st: st, interval: interval, onChange: onChange}
}

// Start installs the change notification and the poll fallback, then runs
// one immediate refresh so initial state is available without waiting for
// the first event or tick. Starting an already-started reader is a no-op.
func (r *Reader) Start() error {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.done = make(chan struct{})
	r.mu.Unlock()

	// Watch the parent directory: the file itself may not exist yet, and
	// atomic renames into place only surface as directory events anyway.
	// Failure is non-fatal; the poll keeps us eventually consistent.
	dir := filepath.Dir(r.st.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("reader: create link home", "err", err)
	}
	if w, err := fsnotify.NewWatcher(); err != nil {
		slog.Warn("reader: change notification unavailable, polling only", "err", err)
	} else if err := w.Add(dir); err != nil {
		slog.Warn("reader: watch install failed, polling only", "dir", dir, "err", err)
		w.Close()
	} else {
		r.watcher = w
	}

	r.ticker = time.NewTicker(r.interval)

	r.refresh()

	r.wg.Add(1)
	go r.loop()
	return nil
}

// loop multiplexes watch events, poll ticks, and shutdown.
func (r *Reader) loop() {
	defer r.wg.Done()

	var events chan fsnotify.Event
	var errs chan error
	if r.watcher != nil {
		events = r.watcher.Events
		errs = r.watcher.Errors
	}

	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Name == r.st.Path() {
				r.refresh()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("reader: watch error", "err", err)
		case <-r.ticker.C:
			r.refresh()
		}
	}
}

// refresh reads the shared file and reconciles the held value. It is safe
// to call from any trigger at any time.
//
// Absence is the valid "nothing focused" state. A read or parse failure is
// treated as no change: the file may be mid-write by another process, and
// flickering the display over a transient is worse than a briefly stale
// value.
func (r *Reader) refresh() {
	raw, err := r.st.Read()
	if err != nil {
		return
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	if sameBytes(raw, r.lastRaw) {
		r.mu.Unlock()
		return
	}

	if raw == nil {
		r.lastRaw = nil
		changed := r.current != nil
		r.current = nil
		r.mu.Unlock()
		if changed {
			r.notify(nil)
		}
		return
	}

	rec, err := selection.Decode(raw)
	if err != nil {
		// Malformed content: hold the previous value and leave lastRaw
		// alone so settled content is re-examined on the next trigger.
		r.mu.Unlock()
		return
	}
	if rec.Stale(time.Now()) {
		rec = nil
	}

	r.lastRaw = raw
	r.current = rec
	r.mu.Unlock()
	r.notify(rec)
}

func (r *Reader) notify(rec *selection.Record) {
	if r.onChange != nil {
		r.onChange(rec)
	}
}

// Current returns the held record, or nil when nothing is focused. The
// staleness filter is applied here as well, so a record that expires while
// the file sits unchanged still reads as absent.
func (r *Reader) Current() *selection.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.Stale(time.Now()) {
		return nil
	}
	return r.current
}

// Ref returns the formatted file reference of the current record, or ""
// when nothing is focused.
func (r *Reader) Ref() string {
	rec := r.Current()
	if rec == nil {
		return ""
	}
	return rec.Ref()
}

// Clear deletes the shared file. This is the one mutation a reader performs;
// it has writer semantics and is idempotent.
func (r *Reader) Clear() error {
	return r.st.Delete()
}

// Stop tears down the watch and the poll ticker. No refresh runs afterwards.
// Stopping an already-stopped (or never-started) reader is a no-op.
func (r *Reader) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	if !started {
		return
	}

	close(r.done)
	r.wg.Wait()

	r.ticker.Stop()
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func sameBytes(a, b []byte) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return bytes.Equal(a, b)
}
