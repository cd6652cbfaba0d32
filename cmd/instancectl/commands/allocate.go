package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Allocate returns the allocate command.
//
// Allocate creates one instance per virtual id from a template and waits
// until at least --min-count of them have a fixed address. If fewer become
// ready the whole batch is deleted again.
func Allocate(opts *handlers.Options) *cobra.Command {
	var a handlers.AllocateOptions

	cmd := &cobra.Command{
		Use:   "allocate [virtual-id...]",
		Short: "Create a batch of instances from a template",
		Long: `Allocate creates one instance per virtual id from a template.

Instances are named <prefix>-<virtual-id> and tagged with their virtual id.
The command waits until at least --min-count instances have a fixed address,
attaching a floating IP from the template's pool to each one that becomes
ready. If fewer instances become ready in time, every instance of the batch
is deleted and the command fails.

Example:
  instancectl allocate -t web.yaml a1 a2 a3 --min-count 2
  instancectl allocate -t web.yaml --count 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.IDs = args
			a.MinCount = minCount(cmd, a.MinCount)
			return handlers.Allocate(cmd.Context(), opts, a)
		},
	}

	cmd.Flags().StringVarP(&a.TemplatePath, "template", "t", "", "Path to instance template file (required)")
	cmd.Flags().IntVar(&a.MinCount, "min-count", 0, "Minimum number of ready instances (default: all)")
	cmd.Flags().IntVar(&a.Count, "count", 0, "Generate this many virtual ids instead of passing them")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

// minCount returns the --min-count value, or -1 (every instance) when the
// flag was not given. An explicit 0 is kept.
func minCount(cmd *cobra.Command, value int) int {
	if !cmd.Flags().Changed("min-count") {
		return -1
	}
	return value
}
