// Package statuscmd implements the `idelink status` command.
package statuscmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yalp/jsonpath"

	"github.com/go-ports/idelink/cmd/idelink/shared"
	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// Command implements `idelink status`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	asJSON bool
	path   string
}

// New creates the status command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "status",
		Short: "Print the current shared selection, if any",
		Long: `Print the current shared selection after staleness filtering.

By default the compact file reference is printed ("/a/b.go:10-15").
--json prints the full record; --jsonpath extracts a single value for
status-line scripts, e.g. --jsonpath '$.file'.`,
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.BoolVar(&c.asJSON, "json", false, "Print the full record as JSON")
	f.StringVar(&c.path, "jsonpath", "", "Extract a value from the record with a JSONPath expression")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.asJSON && c.path != "" {
		return fmt.Errorf("use either --json or --jsonpath, not both")
	}

	out := cmd.OutOrStdout()

	rec, err := currentRecord(store.New(c.ctx.ResolveHome()))
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintln(out, "No current selection.")
		return nil
	}

	switch {
	case c.path != "":
		raw, err := rec.Encode()
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		val, err := jsonpath.Read(doc, c.path)
		if err != nil {
			return fmt.Errorf("jsonpath %q: %w", c.path, err)
		}
		fmt.Fprintln(out, val)
	case c.asJSON:
		raw, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
	default:
		fmt.Fprintln(out, rec.Ref())
	}
	return nil
}

// currentRecord performs a one-shot staleness-filtered read. Absence,
// malformed content, and stale records all read as "no current selection";
// only unexpected I/O failures surface.
func currentRecord(st *store.Store) (*selection.Record, error) {
	raw, err := st.Read()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	rec, err := selection.Decode(raw)
	if err != nil {
		return nil, nil
	}
	if rec.Stale(time.Now()) {
		return nil, nil
	}
	return rec, nil
}
