// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pointer"
)

func TestRootCommand_ListsSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, name := range []string{"duplicates", "merge", "resolve", "migrate"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestDuplicatesCommand_RejectsUnknownTier(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"duplicates", "--min-confidence", "certain"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --min-confidence")
}

func TestMigrateDown_RejectsZeroSteps(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "down", "--steps", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestDuplicateRows(t *testing.T) {
	groups := []series.DuplicateGroup{
		{
			Confidence: series.ConfidenceHigh,
			Members: []series.GroupMember{
				{Series: &series.Series{ID: "a", Name: "Saga", Publisher: "Image", StartYear: pointer.To(2012)}, Reasons: []series.Reason{series.ReasonSameName}},
				{Series: &series.Series{ID: "b", Name: "SAGA"}, Reasons: []series.Reason{series.ReasonSameName, series.ReasonSimilarName}},
			},
		},
		{
			Confidence: series.ConfidenceMedium,
			Members: []series.GroupMember{
				{Series: &series.Series{ID: "c", Name: "Spawn"}, Reasons: []series.Reason{series.ReasonSamePublisherSimilarName}},
			},
		},
	}

	rows := duplicateRows(groups)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "high", "Saga", "Image", "2012", "same_name", "a"}, rows[0])
	assert.Equal(t, []string{"", "", "SAGA", "", "", "same_name, similar_name", "b"}, rows[1])
	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "medium", rows[2][1])
}

func TestPrintDuplicateReport(t *testing.T) {
	var out bytes.Buffer
	printDuplicateReport(&out, &series.DuplicateReport{SeriesScanned: 12, Groups: []series.DuplicateGroup{}})
	assert.Equal(t, "Scanned 12 series: 0 groups, 0 series involved\n", out.String())
}

func TestPrintMergeResult(t *testing.T) {
	var out bytes.Buffer
	printMergeResult(&out, &series.MergeResult{
		TargetID:        "target",
		MergedSourceIDs: []string{"source"},
		IssuesMoved:     12,
		TotalIssues:     62,
		Aliases:         []string{"Bats"},
		Warnings:        []string{"publisher differs"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Merged 1 series into target", lines[0])
	assert.Contains(t, out.String(), "Issues moved:      12 (now 62)")
	assert.Equal(t, "warning: publisher differs", lines[len(lines)-1])
}

func TestRenderTable(t *testing.T) {
	rendered := renderTable([]string{"Name", "Issues"}, [][]string{{"Saga", "54"}, {"Bone"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, rendered, "Saga")
	assert.Contains(t, rendered, "Bone")
	assert.Empty(t, renderTable(nil, nil, nil))
}
