// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
)

// # Merge Engine

// MergeRequest names the series folded into a target.
type MergeRequest struct {
	TargetID  string   `json:"target_id"`
	SourceIDs []string `json:"source_ids"`
}

// MergeSource is one source as seen by a preview.
type MergeSource struct {
	Series     *Series `json:"series"`
	IssueCount int     `json:"issue_count"`
}

// MergePreview describes a merge without applying it.
type MergePreview struct {
	Target       *Series       `json:"target"`
	TargetIssues int           `json:"target_issues"`
	Sources      []MergeSource `json:"sources"`
	Aliases      []string      `json:"aliases"`
	TotalIssues  int           `json:"total_issues"`
	Warnings     []string      `json:"warnings"`
}

// MergeResult reports an applied merge.
type MergeResult struct {
	TargetID         string   `json:"target_id"`
	MergedSourceIDs  []string `json:"merged_source_ids"`
	IssuesMoved      int      `json:"issues_moved"`
	CollectionsMoved int      `json:"collections_moved"`
	ProgressMoved    int      `json:"progress_moved"`
	TargetRestored   bool     `json:"target_restored"`
	Aliases          []string `json:"aliases"`
	TotalIssues      int      `json:"total_issues"`
	Warnings         []string `json:"warnings"`
}

// seriesReader is the lookup surface shared by [Repository] and [MergeTx].
type seriesReader interface {
	FindByID(context context.Context, id string) (*Series, error)
	CountFiles(context context.Context, seriesID string) (int, error)
}

/*
previewMerge computes the outcome of a merge from reader.

Description: Sources that are missing or equal to the target become warnings
instead of failures, as do soft-deleted targets and sources. The alias set is the target's aliases followed by every
source name and alias that differs from the target name and is not already
present, compared case-insensitively.

Returns:
  - *MergePreview: The projected merge
  - error: ValidationError if the target does not exist, storage failures
*/
func previewMerge(context context.Context, reader seriesReader, request MergeRequest) (*MergePreview, error) {
	target, err := findTarget(context, reader, request.TargetID)
	if err != nil {
		return nil, err
	}

	targetIssues, err := reader.CountFiles(context, target.ID)
	if err != nil {
		return nil, err
	}

	preview := &MergePreview{
		Target:       target,
		TargetIssues: targetIssues,
		Sources:      []MergeSource{},
		TotalIssues:  targetIssues,
		Warnings:     []string{},
	}
	if !target.Lifecycle.IsActive() {
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("target %q is soft-deleted and will be restored", target.Name))
	}

	sources := make([]*Series, 0, len(request.SourceIDs))
	for _, sourceID := range distinctIDs(request.SourceIDs) {
		if sourceID == target.ID {
			preview.Warnings = append(preview.Warnings, fmt.Sprintf("source %s is the merge target and is ignored", sourceID))
			continue
		}

		source, err := reader.FindByID(context, sourceID)
		if err != nil {
			if apperr.IsNotFound(err) {
				preview.Warnings = append(preview.Warnings, fmt.Sprintf("source %s does not exist", sourceID))
				continue
			}
			return nil, err
		}

		issues, err := reader.CountFiles(context, source.ID)
		if err != nil {
			return nil, err
		}

		sources = append(sources, source)
		preview.Sources = append(preview.Sources, MergeSource{Series: source, IssueCount: issues})
		preview.TotalIssues += issues

		if warning := publisherWarning(target, source); warning != "" {
			preview.Warnings = append(preview.Warnings, warning)
		}
		if !source.Lifecycle.IsActive() {
			preview.Warnings = append(preview.Warnings,
				fmt.Sprintf("source %q is soft-deleted; its collection memberships will be reactivated", source.Name))
		}
	}

	preview.Aliases = mergedAliases(target, sources)
	return preview, nil
}

/*
executeMerge folds every source into the target inside tx.

Description: For each source the files, collection memberships and reading
progress move to the target (duplicates resolved in the target's favour), its
name and aliases join the target's alias set and the source row is deleted.
A soft-deleted target is restored once the sources are gone, so a series
owning files is always Active. The target's aggregate progress is then
recomputed. The caller owns the
transaction; any error here must roll it back.

Returns:
  - *MergeResult: Counters of the applied merge
  - error: ValidationError, NotFound for a missing source, Conflict when a
    restored target collides with another Active series, storage failures
*/
func executeMerge(context context.Context, tx MergeTx, request MergeRequest) (*MergeResult, error) {
	target, err := findTarget(context, tx, request.TargetID)
	if err != nil {
		return nil, err
	}

	sourceIDs := distinctIDs(request.SourceIDs)
	sources := make([]*Series, 0, len(sourceIDs))
	for _, sourceID := range sourceIDs {
		if sourceID == target.ID {
			return nil, apperr.ValidationError("A series cannot be merged into itself",
				apperr.FieldError{Field: FieldSourceIDs, Message: "must not contain the target"})
		}
		source, err := tx.FindByID(context, sourceID)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	result := &MergeResult{TargetID: target.ID, MergedSourceIDs: []string{}, Warnings: []string{}}
	for _, source := range sources {
		issues, err := tx.ReassignFiles(context, source.ID, target.ID)
		if err != nil {
			return nil, err
		}
		collections, err := tx.MoveCollections(context, source.ID, target.ID)
		if err != nil {
			return nil, err
		}
		progress, err := tx.MoveProgress(context, source.ID, target.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Delete(context, source.ID); err != nil {
			return nil, err
		}

		result.IssuesMoved += issues
		result.CollectionsMoved += collections
		result.ProgressMoved += progress
		result.MergedSourceIDs = append(result.MergedSourceIDs, source.ID)

		if warning := publisherWarning(target, source); warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	if !target.Lifecycle.IsActive() {
		err := tx.Restore(context, target.ID)
		if errors.Is(err, dberr.ErrIdentityConflict) {
			return nil, apperr.Conflict("Another Active series already uses the merge target's name and publisher")
		}
		if err != nil {
			return nil, err
		}
		result.TargetRestored = true
	}

	result.Aliases = mergedAliases(target, sources)
	if err := tx.SetAliases(context, target.ID, result.Aliases); err != nil {
		return nil, err
	}
	if err := tx.RecomputeProgress(context, target.ID); err != nil {
		return nil, err
	}

	result.TotalIssues, err = tx.CountFiles(context, target.ID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// findTarget loads the merge target, reporting a missing one as invalid input.
func findTarget(context context.Context, reader seriesReader, targetID string) (*Series, error) {
	target, err := reader.FindByID(context, targetID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.ValidationError("Merge target does not exist",
				apperr.FieldError{Field: FieldTargetID, Message: "series not found"})
		}
		return nil, err
	}
	return target, nil
}

// mergedAliases appends each source's name and aliases to the target's aliases.
func mergedAliases(target *Series, sources []*Series) []string {
	aliases := make([]string, 0, len(target.Aliases))
	for _, alias := range target.Aliases {
		aliases = appendAlias(aliases, target.Name, alias)
	}
	for _, source := range sources {
		aliases = appendAlias(aliases, target.Name, source.Name)
		for _, alias := range source.Aliases {
			aliases = appendAlias(aliases, target.Name, alias)
		}
	}
	return aliases
}

func appendAlias(aliases []string, targetName, alias string) []string {
	alias = strings.TrimSpace(alias)
	if alias == "" || strings.EqualFold(alias, targetName) {
		return aliases
	}
	for _, existing := range aliases {
		if strings.EqualFold(existing, alias) {
			return aliases
		}
	}
	return append(aliases, alias)
}

func publisherWarning(target, source *Series) string {
	if source.Publisher == "" || target.Publisher == "" || IdentityKey(source.Publisher) == IdentityKey(target.Publisher) {
		return ""
	}
	return fmt.Sprintf("source %q is published by %q but target %q is published by %q",
		source.Name, source.Publisher, target.Name, target.Publisher)
}

func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}
