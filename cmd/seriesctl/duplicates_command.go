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
	"github.com/RolldeoDev/Helixio-sub007/pkg/slice"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	var minimum string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Scan the catalogue for duplicate series",
		Long: "Runs the batch duplicate detector over every Active series. The report is\n" +
			"stored as the latest one when REDIS_URL is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := series.GroupConfidence(strings.ToLower(strings.TrimSpace(minimum)))
			if tier != "" && !tier.Valid() {
				return fmt.Errorf("invalid --min-confidence %q (want high, medium or low)", minimum)
			}

			service, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}

			report, err := service.DetectDuplicates(cmd.Context())
			if err != nil {
				return err
			}
			report.Groups = series.FilterGroups(report.Groups, tier)

			if asJSON {
				return writeJSON(cmd, report)
			}
			printDuplicateReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&minimum, "min-confidence", "", "Only show groups at or above this tier (high, medium, low)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func printDuplicateReport(out io.Writer, report *series.DuplicateReport) {
	members := slice.Reduce(report.Groups, 0, func(total int, group series.DuplicateGroup) int {
		return total + len(group.Members)
	})
	fmt.Fprintf(out, "Scanned %d series: %d groups, %d series involved\n",
		report.SeriesScanned, len(report.Groups), members)
	if len(report.Groups) == 0 {
		return
	}

	fmt.Fprintln(out, renderTable(
		[]string{"#", "Confidence", "Series", "Publisher", "Year", "Reasons", "ID"},
		duplicateRows(report.Groups),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

// duplicateRows flattens groups into one row per member.
func duplicateRows(groups []series.DuplicateGroup) [][]string {
	rows := make([][]string, 0)
	for i, group := range groups {
		for j, member := range group.Members {
			number, confidence := "", ""
			if j == 0 {
				number = strconv.Itoa(i + 1)
				confidence = string(group.Confidence)
			}
			year := ""
			if member.Series.StartYear != nil {
				year = strconv.Itoa(*member.Series.StartYear)
			}
			reasons := slice.Map(member.Reasons, func(reason series.Reason) string { return string(reason) })
			rows = append(rows, []string{
				number,
				confidence,
				member.Series.Name,
				member.Series.Publisher,
				year,
				strings.Join(reasons, ", "),
				member.Series.ID,
			})
		}
	}
	return rows
}
