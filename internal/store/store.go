// Package store manages the shared selection file that writer and reader
// processes coordinate through. The file's path is the wire protocol: every
// integration, in any language, reads and writes the same location.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ports/idelink/internal/selection"
)

// FileName is the fixed name of the shared selection file inside the link
// home. Changing it breaks every existing integration.
const FileName = "ide-selection.json"

// Store reads and writes the shared selection file. The file holds at most
// one record; every write replaces it whole and delete removes it. The
// atomicity of rename is the only cross-process synchronization primitive.
type Store struct {
	path string
}

// New returns a Store rooted at linkHome.
func New(linkHome string) *Store {
	return &Store{path: filepath.Join(linkHome, FileName)}
}

// Path returns the absolute path of the shared selection file.
func (s *Store) Path() string { return s.path }

// Read returns the raw bytes of the shared file. A missing file is the valid
// "nothing focused" state and yields (nil, nil); any other failure is a
// transient error for the caller to absorb.
func (s *Store) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.Read: %w", err)
	}
	return data, nil
}

// Write serialises rec and commits it in one atomic rename, creating the
// parent directory first. A concurrent reader sees either the previous
// record or the new one, never a partial write.
func (s *Store) Write(rec *selection.Record) error {
	raw, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("store.Write: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store.Write: create dir: %w", err)
	}

	// Temp file in the same directory so the rename cannot cross filesystems.
	tmp, err := os.CreateTemp(dir, ".tmp-selection-*")
	if err != nil {
		return fmt.Errorf("store.Write: create temp: %w", err)
	}

	var committed bool
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("store.Write: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store.Write: close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("store.Write: chmod temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store.Write: rename: %w", err)
	}
	committed = true
	return nil
}

// Delete removes the shared file. A missing file is success: clearing an
// already-clear state is a no-op.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store.Delete: %w", err)
	}
	return nil
}
