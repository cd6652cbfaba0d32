// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

// Root returns the root command for the instancectl CLI.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "instancectl",
		Short:         "Provision and tear down IaaS instances by virtual id",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.Out = cmd.OutOrStdout()
			opts.Err = cmd.ErrOrStderr()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Backend, "backend", os.Getenv("INSTANCECTL_BACKEND"), "IaaS backend: hcloud or openstack (env INSTANCECTL_BACKEND)")
	flags.StringVarP(&opts.Output, "output", "o", handlers.OutputTable, "Output format: table or yaml")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log provider calls and polling progress")

	cmd.AddCommand(Allocate(opts))
	cmd.AddCommand(Delete(opts))
	cmd.AddCommand(Find(opts))
	cmd.AddCommand(Status(opts))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
