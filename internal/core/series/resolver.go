// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pointer"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

// # Resolution Inputs

// Query is the candidate identity extracted from one file.
type Query struct {
	Name       string `json:"name"`
	Year       *int   `json:"year,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	FolderPath string `json:"folder_path,omitempty"`
}

// QueryFromMetadata builds the resolution query for a file's metadata.
func QueryFromMetadata(metadata Metadata) Query {
	return Query{
		Name:       strings.TrimSpace(metadata.SeriesName),
		Year:       metadata.Year,
		Publisher:  strings.TrimSpace(metadata.Publisher),
		FolderPath: metadata.FolderPath,
	}
}

// Session carries the scan-session scoped collaborators. Both fields are
// optional; the zero value resolves against storage only.
type Session struct {
	Cache   ScanCache
	Folders FolderRegistry
}

// refresh hands a new or restored series to the session cache when it accepts one.
func (session Session) refresh(series *Series) {
	if refresher, ok := session.Cache.(CacheRefresher); ok {
		refresher.Add(series)
	}
}

// # Match Resolver

// Resolver classifies a [Query] against the catalogue.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

// NewResolver constructs a [Resolver] reading from repo.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

/*
Resolve produces the single MatchResult for a query.

Description: A folder definition with confidence >= 0.8 outranks the catalogue
and is found or created on the spot. Otherwise a supplied scan cache answers
alone (a miss is None). Without a cache the catalogue is consulted in order:
exact identity, name + year, then a fuzzy scan of every Active series.

Parameters:
  - context: context.Context
  - query: Query
  - session: Session (Optional scan cache and folder registry)

Returns:
  - MatchResult: Classified result, Type None when nothing qualifies
  - error: Storage failures
*/
func (resolver *Resolver) Resolve(context context.Context, query Query, session Session) (MatchResult, error) {

	// Folder-scoped definitions outrank the catalogue
	if session.Folders != nil && query.FolderPath != "" {
		definition, confidence, found := session.Folders.Lookup(query.FolderPath, query.Name)
		if found && confidence >= FolderThreshold {
			series, err := resolver.resolveFolder(context, query.FolderPath, definition, session)
			if err != nil {
				return MatchResult{}, err
			}
			return MatchResult{Type: MatchFolderDefined, Series: series, Confidence: confidence}, nil
		}
	}

	// The scan cache is a complete snapshot for the session
	if session.Cache != nil {
		return resolveCached(query, session.Cache), nil
	}

	return resolver.resolveCatalogue(context, query)
}

// resolveCached maps a scan cache hit onto a MatchResult.
func resolveCached(query Query, cache ScanCache) MatchResult {
	series, tier, found := cache.FindMatch(query)
	if !found || series == nil {
		return noMatch()
	}

	matchType := MatchFuzzy
	if tier == CacheExact {
		matchType = MatchExact
	}
	return MatchResult{Type: matchType, Series: series, Confidence: tier.Confidence()}
}

// resolveCatalogue runs the exact, partial and fuzzy steps against storage.
func (resolver *Resolver) resolveCatalogue(context context.Context, query Query) (MatchResult, error) {

	// 1. Exact identity
	series, err := resolver.repo.FindByIdentity(context, query.Name, query.Publisher)
	switch {
	case err == nil:
		return MatchResult{Type: MatchExact, Series: series, Confidence: 1.0}, nil
	case !apperr.IsNotFound(err):
		return MatchResult{}, err
	}

	// 2. Partial: name + start year, publisher ignored
	if query.Year != nil {
		series, err := resolver.repo.FindByNameAndYear(context, query.Name, *query.Year)
		switch {
		case err == nil:
			return MatchResult{Type: MatchPartial, Series: series, Confidence: PartialConfidence}, nil
		case !apperr.IsNotFound(err):
			return MatchResult{}, err
		}
	}

	// 3. Fuzzy scan of the Active catalogue
	catalogue, err := resolver.repo.ListActive(context)
	if err != nil {
		return MatchResult{}, err
	}

	return fuzzyMatch(query, catalogue), nil
}

// fuzzyMatch picks the best scored candidate and keeps every other candidate
// above the fuzzy threshold as an alternate.
func fuzzyMatch(query Query, catalogue []*Series) MatchResult {
	candidates := rankCandidates(query, catalogue)
	if len(candidates) == 0 || candidates[0].Confidence < FuzzyThreshold {
		return noMatch()
	}

	result := MatchResult{Type: MatchFuzzy, Series: candidates[0].Series, Confidence: candidates[0].Confidence}
	for _, candidate := range candidates[1:] {
		if candidate.Confidence <= FuzzyThreshold {
			break
		}
		result.Alternates = append(result.Alternates, candidate)
	}
	return result
}

/*
resolveFolder finds or creates the series a folder definition describes.

Description: An existing series only receives the definition's values for
fields that are still empty and not locked. A missing series is created with
the same conflict handling as the link policy.
*/
func (resolver *Resolver) resolveFolder(context context.Context, folderPath string, definition FolderDefinition, session Session) (*Series, error) {
	existing, err := resolver.repo.FindByIdentity(context, definition.Name, definition.Publisher)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	// Found: fill the gaps only
	if err == nil {
		if fillFromDefinition(existing, folderPath, definition) {
			existing.UpdatedAt = time.Now().UTC()
			if err := resolver.repo.Update(context, existing); err != nil {
				return nil, err
			}
			resolver.logger.Info("series_filled_from_folder",
				slog.String("series_id", existing.ID),
				slog.String("folder_path", folderPath),
			)
		}
		return existing, nil
	}

	// Missing: create from the definition
	now := time.Now().UTC()
	candidate := &Series{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(definition.Name),
		Publisher:    strings.TrimSpace(definition.Publisher),
		StartYear:    definition.StartYear,
		EndYear:      definition.EndYear,
		Aliases:      []string{},
		ExternalIDs:  cloneExternalIDs(definition.ExternalIDs),
		LockedFields: []string{},
		FolderPath:   folderPath,
		Lifecycle:    Active(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	outcome, err := createOrLookup(context, resolver.repo, candidate)
	if err != nil {
		return nil, err
	}
	session.refresh(outcome.Series)

	if outcome.Kind == CreateCreated {
		resolver.logger.Info("series_created",
			slog.String("series_id", outcome.Series.ID),
			slog.String("name", outcome.Series.Name),
			slog.String("source", string(MatchFolderDefined)),
		)
	}
	return outcome.Series, nil
}

// fillFromDefinition copies definition values into empty, unlocked fields and
// reports whether anything changed.
func fillFromDefinition(series *Series, folderPath string, definition FolderDefinition) bool {
	changed := false

	if series.StartYear == nil && definition.StartYear != nil && !series.IsLocked(FieldStartYear) {
		series.StartYear = pointer.To(*definition.StartYear)
		changed = true
	}
	if series.EndYear == nil && definition.EndYear != nil && !series.IsLocked(FieldEndYear) {
		series.EndYear = pointer.To(*definition.EndYear)
		changed = true
	}
	if series.FolderPath == "" && folderPath != "" && !series.IsLocked(FieldFolderPath) {
		series.FolderPath = folderPath
		changed = true
	}
	if !series.IsLocked(FieldExternalIDs) {
		for kind, value := range definition.ExternalIDs {
			if value == "" || series.ExternalIDs[kind] != "" {
				continue
			}
			if series.ExternalIDs == nil {
				series.ExternalIDs = make(map[string]string)
			}
			series.ExternalIDs[kind] = value
			changed = true
		}
	}

	return changed
}

func cloneExternalIDs(source map[string]string) map[string]string {
	clone := make(map[string]string, len(source))
	for kind, value := range source {
		if value != "" {
			clone[kind] = value
		}
	}
	return clone
}
