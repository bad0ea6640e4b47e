// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var target string
	var sources []string
	var preview bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge duplicate series into a target",
		Example: "  seriesctl merge --target <id> --source <id> --source <id> --preview\n" +
			"  seriesctl merge --target <id> --source <id>",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}

			request := series.MergeRequest{TargetID: strings.TrimSpace(target), SourceIDs: sources}
			out := cmd.OutOrStdout()

			if preview {
				result, err := service.PreviewMerge(cmd.Context(), request)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, result)
				}
				printMergePreview(out, result)
				return nil
			}

			result, err := service.ExecuteMerge(cmd.Context(), request)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printMergeResult(out, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Series that survives the merge")
	cmd.Flags().StringArrayVar(&sources, "source", nil, "Series folded into the target (repeatable)")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show the outcome without applying it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func printMergePreview(out io.Writer, preview *series.MergePreview) {
	fmt.Fprintf(out, "Target: %s (%d issues)\n", preview.Target.Name, preview.TargetIssues)

	rows := make([][]string, 0, len(preview.Sources))
	for _, source := range preview.Sources {
		rows = append(rows, []string{source.Series.Name, source.Series.Publisher, strconv.Itoa(source.IssueCount), source.Series.ID})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Source", "Publisher", "Issues", "ID"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}

	fmt.Fprintf(out, "Issues after merge: %d\n", preview.TotalIssues)
	fmt.Fprintf(out, "Aliases after merge: %s\n", joinOrNone(preview.Aliases))
	printWarnings(out, preview.Warnings)
}

func printMergeResult(out io.Writer, result *series.MergeResult) {
	fmt.Fprintf(out, "Merged %d series into %s\n", len(result.MergedSourceIDs), result.TargetID)
	fmt.Fprintf(out, "Issues moved:      %d (now %d)\n", result.IssuesMoved, result.TotalIssues)
	fmt.Fprintf(out, "Collections moved: %d\n", result.CollectionsMoved)
	fmt.Fprintf(out, "Progress moved:    %d\n", result.ProgressMoved)
	fmt.Fprintf(out, "Aliases:           %s\n", joinOrNone(result.Aliases))
	printWarnings(out, result.Warnings)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
