package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

var (
	errInvalidArgs = errors.New("invalid arguments")
	errDenied      = errors.New("operation denied")
)

func newCheckCmd() *cobra.Command {
	var layer, operation, subtype string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Decide whether an operation may run with the current flags",
		Long: `Evaluate an enforcement decision without running anything. The command exits
non-zero when the operation is denied. Leaving --subtype empty means the
subtype is unknown, in which case every rule for the operation applies.`,
		Example: "  featuregate check --layer repository --operation create_typed_account --subtype bnpl",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := requirements.ParseLayer(layer)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.openStore(ctx); err != nil {
					return err
				}
				resolver, err := a.openResolver(ctx)
				if err != nil {
					return err
				}

				guard := enforce.NewGuard(l, a.eval, resolver, enforce.WithLogger(a.log))
				err = guard.Check(ctx, operation, subtype)
				if flag, denied := enforce.DisabledFlag(err); denied {
					fmt.Fprintf(cmd.OutOrStdout(), "denied: flag %s is disabled\n", flag)
					return errors.Join(errDenied, err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "layer of the operation (repository, service, api)")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name")
	cmd.Flags().StringVar(&subtype, "subtype", "", "call subtype, such as an account kind")
	_ = cmd.MarkFlagRequired("layer")
	_ = cmd.MarkFlagRequired("operation")
	return cmd
}
