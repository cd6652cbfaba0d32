package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Find returns the find command.
func Find(opts *handlers.Options) *cobra.Command {
	var f handlers.FindOptions

	cmd := &cobra.Command{
		Use:   "find virtual-id...",
		Short: "Show the instances backing virtual ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.IDs = args
			return handlers.Find(cmd.Context(), opts, f)
		},
	}

	cmd.Flags().StringVarP(&f.TemplatePath, "template", "t", "", "Template to attach to each record")

	return cmd
}
