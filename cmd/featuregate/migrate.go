package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/featuregate/pkg/config"
	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/pg"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema for flags and requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var pgCfg pg.Config
			if err := config.Load(&pgCfg); err != nil {
				return err
			}
			if dir != "" {
				pgCfg.MigrationsPath = dir
			}

			ctx := cmd.Context()
			pool, err := pg.Connect(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			version, err := pg.Migrate(ctx, pool, pgCfg, log.With(logger.Component("migrate")))
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied", slog.Int64("version", version))
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	return cmd
}
