// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var debugFlag bool

	ctx := newCommandContext(&debugFlag)

	rootCmd := &cobra.Command{
		Use:           "seriesctl",
		Short:         "Helixio series maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newDuplicatesCommand(ctx))
	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}
