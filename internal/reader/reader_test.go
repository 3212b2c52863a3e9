package reader_test

import (
	"os"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/idelink/internal/reader"
	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// changeLog collects onChange invocations for assertions.
type changeLog struct {
	mu      sync.Mutex
	entries []*selection.Record
}

func (l *changeLog) record(rec *selection.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, rec)
}

func (l *changeLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *changeLog) last() *selection.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[len(l.entries)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(c *qt.C, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.Fatal("condition not reached in time")
}

func TestStart_InitialRefresh(t *testing.T) {
	c := qt.New(t)

	// A reader started after a commit surfaces the record on its first
	// refresh, without waiting for an event or poll tick.
	s := store.New(t.TempDir())
	want := selection.New("vscode", "/p/x.py", "print(1)", 3, 3)
	c.Assert(s.Write(want), qt.IsNil)

	r := reader.New(s, 10*time.Millisecond, nil)
	c.Assert(r.Start(), qt.IsNil)
	defer r.Stop()

	got := r.Current()
	c.Assert(got, qt.IsNotNil)
	c.Assert(got, qt.DeepEquals, want)
	c.Assert(r.Ref(), qt.Equals, "/p/x.py:3")
}

func TestRefresh_ObservesWriteAndDelete(t *testing.T) {
	c := qt.New(t)

	s := store.New(t.TempDir())
	var log changeLog
	r := reader.New(s, 20*time.Millisecond, log.record)
	c.Assert(r.Start(), qt.IsNil)
	defer r.Stop()

	c.Assert(r.Current(), qt.IsNil)

	rec := selection.New("neovim", "/p/a.go", "", 0, 0)
	c.Assert(s.Write(rec), qt.IsNil)
	waitFor(c, func() bool { return r.Current() != nil })
	c.Assert(r.Current(), qt.DeepEquals, rec)
	c.Assert(log.last(), qt.DeepEquals, rec)

	// Deleting the file reads back as "nothing focused".
	c.Assert(s.Delete(), qt.IsNil)
	waitFor(c, func() bool { return r.Current() == nil })
	c.Assert(log.last(), qt.IsNil)
	c.Assert(r.Ref(), qt.Equals, "")
}

func TestRefresh_ChangeSuppression(t *testing.T) {
	c := qt.New(t)

	home := t.TempDir()
	s := store.New(home)
	var log changeLog
	r := reader.New(s, 10*time.Millisecond, log.record)
	c.Assert(r.Start(), qt.IsNil)
	defer r.Stop()

	rec := selection.New("vscode", "/p/a.go", "x", 1, 1)
	raw, err := rec.Encode()
	c.Assert(err, qt.IsNil)

	// Write byte-identical content twice; redundant triggers must not
	// produce a second update.
	c.Assert(os.WriteFile(s.Path(), raw, 0o600), qt.IsNil)
	waitFor(c, func() bool { return log.len() >= 1 })
	c.Assert(os.WriteFile(s.Path(), raw, 0o600), qt.IsNil)

	time.Sleep(100 * time.Millisecond)
	c.Assert(log.len(), qt.Equals, 1)
}

func TestRefresh_MalformedContentKeepsHeldValue(t *testing.T) {
	c := qt.New(t)

	s := store.New(t.TempDir())
	rec := selection.New("vscode", "/p/a.go", "x", 1, 2)
	c.Assert(s.Write(rec), qt.IsNil)

	var log changeLog
	r := reader.New(s, 10*time.Millisecond, log.record)
	c.Assert(r.Start(), qt.IsNil)
	defer r.Stop()
	c.Assert(r.Current(), qt.DeepEquals, rec)

	// Clobber the file with garbage, as if caught mid-write.
	c.Assert(os.WriteFile(s.Path(), []byte("{not json"), 0o600), qt.IsNil)
	time.Sleep(100 * time.Millisecond)

	// Held value survives; no clear, no crash, no flicker.
	c.Assert(r.Current(), qt.DeepEquals, rec)

	// Once the file settles the new state is picked up.
	fresh := selection.New("vscode", "/p/b.go", "", 0, 0)
	c.Assert(s.Write(fresh), qt.IsNil)
	waitFor(c, func() bool {
		cur := r.Current()
		return cur != nil && cur.File == "/p/b.go"
	})
}

func TestRefresh_StalenessFilter(t *testing.T) {
	c := qt.New(t)

	c.Run("two hour old record reads as absent", func(c *qt.C) {
		s := store.New(t.TempDir())
		stale := selection.New("vscode", "/p/old.go", "x", 1, 1)
		stale.Timestamp = time.Now().Add(-2 * time.Hour).UnixMilli()
		c.Assert(s.Write(stale), qt.IsNil)

		r := reader.New(s, 10*time.Millisecond, nil)
		c.Assert(r.Start(), qt.IsNil)
		defer r.Stop()

		c.Assert(r.Current(), qt.IsNil)
		c.Assert(r.Ref(), qt.Equals, "")
	})

	c.Run("one minute old record round-trips", func(c *qt.C) {
		s := store.New(t.TempDir())
		fresh := selection.New("vscode", "/p/new.go", "x", 1, 1)
		fresh.Timestamp = time.Now().Add(-time.Minute).UnixMilli()
		c.Assert(s.Write(fresh), qt.IsNil)

		r := reader.New(s, 10*time.Millisecond, nil)
		c.Assert(r.Start(), qt.IsNil)
		defer r.Stop()

		c.Assert(r.Current(), qt.DeepEquals, fresh)
	})
}

func TestClear_DeletesResource(t *testing.T) {
	c := qt.New(t)

	s := store.New(t.TempDir())
	c.Assert(s.Write(selection.New("vscode", "/p/a.go", "", 0, 0)), qt.IsNil)

	r := reader.New(s, 10*time.Millisecond, nil)
	c.Assert(r.Start(), qt.IsNil)
	defer r.Stop()

	c.Assert(r.Clear(), qt.IsNil)
	raw, err := s.Read()
	c.Assert(err, qt.IsNil)
	c.Assert(raw, qt.IsNil)

	// Clearing again is a no-op.
	c.Assert(r.Clear(), qt.IsNil)
}

func TestStop_Idempotent(t *testing.T) {
	c := qt.New(t)

	s := store.New(t.TempDir())
	r := reader.New(s, 10*time.Millisecond, nil)
	c.Assert(r.Start(), qt.IsNil)

	r.Stop()
	r.Stop()

	// A never-started reader stops cleanly too.
	r2 := reader.New(s, 10*time.Millisecond, nil)
	r2.Stop()
}
