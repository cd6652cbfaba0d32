package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Delete returns the delete command.
func Delete(opts *handlers.Options) *cobra.Command {
	var d handlers.DeleteOptions

	cmd := &cobra.Command{
		Use:   "delete virtual-id...",
		Short: "Delete instances and release their floating IPs",
		Long: `Delete tears down the instances backing the given virtual ids.

Each instance's floating IP is detached and released before the instance is
deleted. Virtual ids without an instance are reported and skipped.

Example:
  instancectl delete a1 a2 --yes

WARNING: This operation is irreversible.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.IDs = args
			return handlers.Delete(cmd.Context(), opts, d)
		},
	}

	cmd.Flags().BoolVarP(&d.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
