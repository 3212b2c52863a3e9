// Package watchcmd implements the `idelink watch` command.
package watchcmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/idelink/cmd/idelink/shared"
	"github.com/go-ports/idelink/internal/config"
	"github.com/go-ports/idelink/internal/reader"
	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// Command implements `idelink watch`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	asJSON bool
}

// New creates the watch command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "watch",
		Short: "Follow the shared selection, printing each change",
		Long: `Run a reader over the shared selection file and print one line per
change until interrupted. Intended for status-line consumers:

    idelink watch | while read ref; do update-status "$ref"; done`,
		RunE: c.run,
	}
	c.cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print each change as a JSON line")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	home := c.ctx.ResolveHome()
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	emit := func(rec *selection.Record) {
		switch {
		case rec == nil:
			fmt.Fprintln(out)
		case c.asJSON:
			if raw, err := json.Marshal(rec); err == nil {
				fmt.Fprintln(out, string(raw))
			}
		default:
			fmt.Fprintln(out, rec.Ref())
		}
	}

	rd := reader.New(
		store.New(home),
		time.Duration(cfg.PollMs)*time.Millisecond,
		emit,
	)
	// Start's immediate refresh reports the starting state through the
	// callback, so consumers need no separate `status` call.
	if err := rd.Start(); err != nil {
		return err
	}
	defer rd.Stop()

	<-cmd.Context().Done()
	return nil
}
