// Package selection defines the shared selection record and its wire rules.
package selection

import (
	"encoding/json"
	"fmt"
	"time"
)

// StaleAfter is the protocol-level staleness threshold. A record older than
// this is treated as absent by every reader, guarding against state that
// survives an editor crash with no clean shutdown. It is a wire constant,
// not configuration.
const StaleAfter = time.Hour

// Record describes what is currently focused in one editor instance: the
// active file and, when text is selected, the selected range. At most one
// record exists at any instant; the shared file either holds the most recent
// write or does not exist.
type Record struct {
	// File is the absolute path of the focused file. Required.
	File string `json:"file"`

	// Selection is the selected text. Empty means the file is focused but
	// nothing is selected.
	Selection string `json:"selection,omitempty"`

	// StartLine and EndLine are 1-based inclusive line numbers. Present
	// iff Selection is present (both-or-neither).
	StartLine *int `json:"startLine,omitempty"`
	EndLine   *int `json:"endLine,omitempty"`

	// IDE identifies the producing editor ("vscode", "neovim", "shell", …).
	// Open string tag, display only.
	IDE string `json:"ide,omitempty"`

	// Timestamp is epoch milliseconds at write time. Used solely for
	// staleness filtering, never for ordering.
	Timestamp int64 `json:"timestamp"`
}

// New builds a Record stamped with the current time. startLine/endLine are
// attached only when selected is non-empty.
func New(ide, file, selected string, startLine, endLine int) *Record {
	r := &Record{
		File:      file,
		IDE:       ide,
		Timestamp: time.Now().UnixMilli(),
	}
	if selected != "" {
		r.Selection = selected
		r.StartLine = &startLine
		r.EndLine = &endLine
	}
	return r
}

// Validate checks the structural invariants of a decoded record.
func (r *Record) Validate() error {
	if r.File == "" {
		return fmt.Errorf("selection: record missing file")
	}
	if (r.StartLine == nil) != (r.EndLine == nil) {
		return fmt.Errorf("selection: startLine/endLine must be set together")
	}
	if r.StartLine != nil && *r.EndLine < *r.StartLine {
		return fmt.Errorf("selection: endLine %d precedes startLine %d", *r.EndLine, *r.StartLine)
	}
	return nil
}

// Stale reports whether the record's timestamp is older than StaleAfter
// relative to now.
func (r *Record) Stale(now time.Time) bool {
	return now.Sub(time.UnixMilli(r.Timestamp)) > StaleAfter
}

// Ref formats the record as a file reference for insertion into assistant
// context: "<file>:10" for a single line, "<file>:10-15" for a range, bare
// "<file>" when no range is present.
func (r *Record) Ref() string {
	if r.StartLine == nil || r.EndLine == nil {
		return r.File
	}
	if *r.StartLine == *r.EndLine {
		return fmt.Sprintf("%s:%d", r.File, *r.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", r.File, *r.StartLine, *r.EndLine)
}

// Encode serialises the record to its wire form.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses raw wire bytes into a validated Record.
func Decode(raw []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("selection: decode: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Line is a convenience for constructing the optional line pointers in
// literals and tests.
func Line(n int) *int { return &n }
