// Package sendcmd implements the `idelink send` command, the shell-side
// writer integration.
package sendcmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-ports/idelink/cmd/idelink/shared"
	"github.com/go-ports/idelink/internal/config"
	"github.com/go-ports/idelink/internal/store"
	"github.com/go-ports/idelink/internal/writer"
)

// Command implements `idelink send`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	file      string
	text      string
	fromStdin bool
	start     int
	end       int
	ide       string
}

// New creates the send command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "send",
		Short: "Publish the current file/selection to assistant sessions",
		Long: `Publish what is currently being looked at to every running assistant session.

This is the shell integration of the writer role: the commit is immediate
(no debounce) because each invocation is an intentional user action.`,
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.file, "file", "", "Absolute path of the focused file (required)")
	f.StringVar(&c.text, "text", "", "Selected text, if any")
	f.BoolVar(&c.fromStdin, "text-from-stdin", false, "Read the selected text from stdin")
	f.IntVar(&c.start, "start", 0, "1-based first line of the selection")
	f.IntVar(&c.end, "end", 0, "1-based last line of the selection (defaults to --start)")
	f.StringVar(&c.ide, "ide", "", "IDE tag to publish (default: configured ide, normally \"shell\")")

	_ = c.cmd.MarkFlagRequired("file")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.text != "" && c.fromStdin {
		return fmt.Errorf("use either --text or --text-from-stdin, not both")
	}

	text := c.text
	if c.fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read selection from stdin: %w", err)
		}
		text = string(data)
	}

	if text != "" && c.start <= 0 {
		return fmt.Errorf("--start is required when selected text is provided")
	}
	end := c.end
	if end == 0 {
		end = c.start
	}
	if text != "" && end < c.start {
		return fmt.Errorf("--end %d precedes --start %d", end, c.start)
	}

	file, err := filepath.Abs(c.file)
	if err != nil {
		return fmt.Errorf("failed to resolve --file: %w", err)
	}

	home := c.ctx.ResolveHome()
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return err
	}
	ide := c.ide
	if ide == "" {
		ide = cfg.IDE
	}

	w := writer.New(store.New(home), ide, 0)
	defer w.Close()
	w.UpdateNow(file, text, c.start, end)

	fmt.Fprintf(cmd.OutOrStdout(), "Sent: %s\n", file)
	return nil
}
