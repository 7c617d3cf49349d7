// Command featuregate administers feature flags and requirement matrices and
// serves the admin HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/featuregate/pkg/config"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "featuregate",
		Short: "Feature flag policy enforcement",
		Long: `featuregate decides whether an operation may run based on named feature flags
and a requirements matrix mapping flags to layers, operations and subtypes.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(envFiles) == 0 {
				return nil
			}
			return config.LoadEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load environment from .env files (later files win)")

	root.AddCommand(
		newServeCmd(),
		newFlagsCmd(),
		newRequirementsCmd(),
		newCheckCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "featuregate %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
