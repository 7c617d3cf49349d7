package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/logger"
)

// withApp loads configuration, builds the app and closes it after fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log.With(logger.Component("cli")))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func newFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect and toggle feature flags",
	}
	cmd.AddCommand(newFlagsListCmd(), newFlagsSetCmd(), newFlagsSeedCmd())
	return cmd
}

func newFlagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				flags, err := store.List(ctx)
				if err != nil {
					return err
				}
				return printFlags(cmd.OutOrStdout(), flags)
			})
		},
	}
}

func newFlagsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set NAME on|off",
		Short:   "Enable or disable a flag",
		Example: "  featuregate flags set BANKING_ACCOUNT_TYPES_ENABLED on",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				flag, err := store.SetEnabled(ctx, args[0], enabled)
				if err != nil {
					return err
				}
				a.log.InfoContext(ctx, "feature flag changed", logger.Flag(flag.Name), slog.Bool("enabled", flag.Enabled))
				return printFlags(cmd.OutOrStdout(), []*feature.Flag{flag})
			})
		},
	}
}

func newFlagsSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Persist registered flags that are not stored yet with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				storage, err := a.openStorage(ctx)
				if err != nil {
					return err
				}
				store := feature.NewStore(a.dir, storage)
				defer store.Close()
				created, err := store.Seed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d flags\n", created, a.dir.Len())
				return nil
			})
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: expected on or off, got %q", errInvalidArgs, s)
	}
	return v, nil
}

func printFlags(w io.Writer, flags []*feature.Flag) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tUPDATED\tDESCRIPTION")
	for _, f := range flags {
		updated := "-"
		if !f.UpdatedAt.IsZero() {
			updated = f.UpdatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", f.Name, f.Enabled, updated, f.Description)
	}
	return tw.Flush()
}
