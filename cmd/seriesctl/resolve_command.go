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
	"github.com/RolldeoDev/Helixio-sub007/pkg/pointer"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year int
	var publisher string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show which series a name resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}

			query := series.Query{Name: strings.Join(args, " "), Publisher: publisher}
			if cmd.Flags().Changed("year") {
				query.Year = pointer.To(year)
			}

			result, err := service.Resolve(cmd.Context(), query, series.Session{})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printMatchResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Start year hint")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Publisher hint")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func printMatchResult(out io.Writer, result series.MatchResult) {
	if result.Series == nil {
		fmt.Fprintf(out, "No match (%s)\n", result.Type)
	} else {
		fmt.Fprintf(out, "%s match: %s [%s] confidence %.2f\n",
			result.Type, result.Series.Name, result.Series.ID, result.Confidence)
	}

	if len(result.Alternates) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Alternates))
	for _, candidate := range result.Alternates {
		rows = append(rows, []string{
			candidate.Series.Name,
			candidate.Series.Publisher,
			strconv.FormatFloat(candidate.Confidence, 'f', 2, 64),
			candidate.Series.ID,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Alternate", "Publisher", "Confidence", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
}
