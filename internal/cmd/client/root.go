package client

import (
	"github.com/rzbill/taxiway/pkg/client"
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command holding every client command.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "taxiway",
		Short: "taxiway client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers the client commands and their shared flags on
// parent.
func AddCommands(parent *cobra.Command, baseURL BaseURLFunc) {
	parent.PersistentFlags().String("addr", addrFromEnv(), "Protocol address (env TAXIWAY_ADDR)")
	parent.PersistentFlags().Duration("timeout", client.DefaultTimeout, "Per-request timeout")
	parent.AddCommand(
		newSubmitCommand(),
		newDeliverCommand(),
		newAckCommand(),
		newReleaseCommand(),
		newLenCommand(),
		newPingCommand(),
		newHealthCommand(),
		newStatsCommand(baseURL),
		newJobsCommand(baseURL),
		newHistoryCommand(baseURL),
	)
}
