// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/migration"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, ctx.logger()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, ctx.logger()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(downCmd)

	return migrateCmd
}
