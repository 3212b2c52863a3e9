// Package rootcmd wires the root cobra.Command for the idelink CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	clearcmd "github.com/go-ports/idelink/cmd/idelink/clear"
	configcmd "github.com/go-ports/idelink/cmd/idelink/config"
	mcpcmd "github.com/go-ports/idelink/cmd/idelink/mcp"
	sendcmd "github.com/go-ports/idelink/cmd/idelink/send"
	"github.com/go-ports/idelink/cmd/idelink/shared"
	statuscmd "github.com/go-ports/idelink/cmd/idelink/status"
	watchcmd "github.com/go-ports/idelink/cmd/idelink/watch"
)

// New creates and returns the root cobra.Command for the idelink CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "idelink",
		Short:         "idelink — share the editor's current selection with AI assistant sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.LinkHome, "link-home", "",
		"Override link home directory (default: $IDELINK_HOME env → persisted config → ~/.idelink)",
	)

	root.AddCommand(
		sendcmd.New(ctx).Cmd(),
		clearcmd.New(ctx).Cmd(),
		statuscmd.New(ctx).Cmd(),
		watchcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
