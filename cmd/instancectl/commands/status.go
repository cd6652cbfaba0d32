package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Status returns the status command.
func Status(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status virtual-id...",
		Short: "Show the state of virtual ids",
		Long: `Status prints one state per virtual id: pending, running, stopping,
stopped, deleting, deleted, failed or unknown. A virtual id without an
instance is reported as deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Status(cmd.Context(), opts, args)
		},
	}
}
