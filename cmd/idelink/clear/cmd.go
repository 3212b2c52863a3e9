// Package clearcmd implements the `idelink clear` command.
package clearcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/idelink/cmd/idelink/shared"
	"github.com/go-ports/idelink/internal/store"
	"github.com/go-ports/idelink/internal/writer"
)

// Command implements `idelink clear`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the clear command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "clear",
		Short: "Forget the shared selection (idempotent)",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	w := writer.New(store.New(c.ctx.ResolveHome()), "", 0)
	w.Clear()
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared.")
	return nil
}
