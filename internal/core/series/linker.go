// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

// # Link Outcomes

// LinkStatus is the decision taken for one file.
type LinkStatus string

const (
	LinkStatusLinked            LinkStatus = "linked"
	LinkStatusCreated           LinkStatus = "created"
	LinkStatusNeedsConfirmation LinkStatus = "needs_confirmation"
)

// LinkRequest asks the policy to place one file.
type LinkRequest struct {
	FileID        string   `json:"file_id"`
	Metadata      Metadata `json:"metadata"`
	TrustMetadata bool     `json:"trust_metadata"`
}

// LinkOutcome reports what happened to the file. Needs-confirmation is a valid
// outcome, not an error; nothing is written in that case.
type LinkOutcome struct {
	Status      LinkStatus  `json:"status"`
	SeriesID    string      `json:"series_id,omitempty"`
	MatchType   MatchType   `json:"match_type"`
	Confidence  float64     `json:"confidence"`
	Suggestions []Candidate `json:"suggestions,omitempty"`
	Warning     string      `json:"warning,omitempty"`
}

// maxWarningAlternates bounds the alternates named in a trust-metadata warning.
const maxWarningAlternates = 2

// # Race-safe Creation

// CreateKind tells whether a create inserted a row or lost the race.
type CreateKind string

const (
	CreateCreated       CreateKind = "created"
	CreateConflictRetry CreateKind = "conflict_retry"
)

// CreateOutcome is the result of [createOrLookup]: the inserted series, or the
// series another writer created first under the same identity.
type CreateOutcome struct {
	Kind   CreateKind
	Series *Series
}

/*
createOrLookup inserts candidate or, when its identity was taken concurrently,
returns the winner.

Description: The identity conflict is expected under concurrent scans and is
consumed here; the follow-up lookup goes straight to storage so a stale scan
cache cannot hide the winner.

Parameters:
  - context: context.Context
  - repo: Repository
  - candidate: *Series

Returns:
  - CreateOutcome: created or conflict_retry
  - error: Storage failures
*/
func createOrLookup(context context.Context, repo Repository, candidate *Series) (CreateOutcome, error) {
	err := repo.Insert(context, candidate)
	if err == nil {
		return CreateOutcome{Kind: CreateCreated, Series: candidate}, nil
	}
	if !errors.Is(err, dberr.ErrIdentityConflict) {
		return CreateOutcome{}, err
	}

	winner, err := repo.FindByIdentity(context, candidate.Name, candidate.Publisher)
	if err != nil {
		return CreateOutcome{}, fmt.Errorf("series: lookup after identity conflict: %w", err)
	}
	return CreateOutcome{Kind: CreateConflictRetry, Series: winner}, nil
}

// # Auto-Link Policy

// Linker applies the auto-link decision table to resolved files.
type Linker struct {
	repo     Repository
	resolver *Resolver
	logger   *slog.Logger
}

// NewLinker constructs a [Linker].
func NewLinker(repo Repository, resolver *Resolver, logger *slog.Logger) *Linker {
	return &Linker{repo: repo, resolver: resolver, logger: logger}
}

/*
Link resolves the file's metadata and links, creates or defers.

Description: Folder-defined matches and matches at >= 0.9 link directly.
Matches in [0.7, 0.9) return suggestions unless TrustMetadata is set, in which
case a new series is created with the supplied name and a warning names the
similar series. Anything weaker creates a new series. Soft-deleted targets are
restored before the file link is written.

Parameters:
  - context: context.Context
  - request: LinkRequest
  - session: Session (Scan-session collaborators, may be zero)

Returns:
  - LinkOutcome: The decision taken
  - error: NotFound for an unknown file, storage failures
*/
func (linker *Linker) Link(context context.Context, request LinkRequest, session Session) (LinkOutcome, error) {

	// Unknown files fail before anything is written
	exists, err := linker.repo.FileExists(context, request.FileID)
	if err != nil {
		return LinkOutcome{}, err
	}
	if !exists {
		return LinkOutcome{}, apperr.NotFound("File")
	}

	query := QueryFromMetadata(request.Metadata)
	match, err := linker.resolver.Resolve(context, query, session)
	if err != nil {
		return LinkOutcome{}, err
	}

	switch {

	// Authoritative or confident matches
	case match.Type == MatchFolderDefined, match.Type != MatchNone && match.Confidence >= AutoLinkThreshold:
		seriesID, err := linker.attach(context, match.Series, request.FileID, session)
		if err != nil {
			return LinkOutcome{}, err
		}
		return LinkOutcome{
			Status:     LinkStatusLinked,
			SeriesID:   seriesID,
			MatchType:  match.Type,
			Confidence: match.Confidence,
		}, nil

	// Ambiguous matches, reviewed by a human
	case match.Type != MatchNone && match.Confidence >= FuzzyThreshold && !request.TrustMetadata:
		return LinkOutcome{
			Status:      LinkStatusNeedsConfirmation,
			MatchType:   match.Type,
			Confidence:  match.Confidence,
			Suggestions: suggestionsOf(match),
		}, nil

	// Ambiguous matches with trusted metadata
	case match.Type != MatchNone && match.Confidence >= FuzzyThreshold:
		outcome, err := linker.createAndAttach(context, request, session)
		if err != nil {
			return LinkOutcome{}, err
		}
		outcome.Warning = similarSeriesWarning(query.Name, match)
		return outcome, nil

	default:
		return linker.createAndAttach(context, request, session)
	}
}

// createAndAttach creates a series from the request metadata and links the file.
func (linker *Linker) createAndAttach(context context.Context, request LinkRequest, session Session) (LinkOutcome, error) {
	candidate := newSeriesFromMetadata(request.Metadata)

	outcome, err := createOrLookup(context, linker.repo, candidate)
	if err != nil {
		return LinkOutcome{}, err
	}
	session.refresh(outcome.Series)

	seriesID, err := linker.attach(context, outcome.Series, request.FileID, session)
	if err != nil {
		return LinkOutcome{}, err
	}

	if outcome.Kind == CreateConflictRetry {
		linker.logger.Info("series_create_conflict_resolved",
			slog.String("series_id", seriesID),
			slog.String("name", candidate.Name),
		)
		return LinkOutcome{Status: LinkStatusLinked, SeriesID: seriesID, MatchType: MatchExact, Confidence: 1.0}, nil
	}

	linker.logger.Info("series_created",
		slog.String("series_id", seriesID),
		slog.String("name", candidate.Name),
		slog.String("file_id", request.FileID),
	)
	return LinkOutcome{Status: LinkStatusCreated, SeriesID: seriesID, MatchType: MatchNone}, nil
}

/*
attach writes the file link, restoring a soft-deleted series first.

Returns:
  - string: The series the file was linked to
  - error: NotFound for an unknown file, storage failures
*/
func (linker *Linker) attach(context context.Context, series *Series, fileID string, session Session) (string, error) {
	if !series.Lifecycle.IsActive() {
		restored, err := linker.restore(context, series)
		if err != nil {
			return "", err
		}
		series = restored
		session.refresh(series)
	}

	if err := linker.repo.LinkFile(context, fileID, series.ID); err != nil {
		return "", err
	}

	linker.logger.Debug("series_linked",
		slog.String("series_id", series.ID),
		slog.String("file_id", fileID),
	)
	return series.ID, nil
}

// restore reactivates series. When another writer already created an Active
// series with the same identity, that series is used instead.
func (linker *Linker) restore(context context.Context, series *Series) (*Series, error) {
	err := linker.repo.Restore(context, series.ID)
	if errors.Is(err, dberr.ErrIdentityConflict) {
		return linker.repo.FindByIdentity(context, series.Name, series.Publisher)
	}
	if err != nil {
		return nil, err
	}

	linker.logger.Info("series_restored", slog.String("series_id", series.ID))

	restored := series.Clone()
	restored.Lifecycle = Active()
	return restored, nil
}

// newSeriesFromMetadata builds an Active series using the supplied name verbatim.
func newSeriesFromMetadata(metadata Metadata) *Series {
	now := time.Now().UTC()
	return &Series{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(metadata.SeriesName),
		Publisher:    strings.TrimSpace(metadata.Publisher),
		StartYear:    metadata.Year,
		Aliases:      []string{},
		ExternalIDs:  cloneExternalIDs(metadata.ExternalIDs),
		LockedFields: []string{},
		FolderPath:   metadata.FolderPath,
		Lifecycle:    Active(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// suggestionsOf ranks the best match ahead of its alternates.
func suggestionsOf(match MatchResult) []Candidate {
	suggestions := make([]Candidate, 0, 1+len(match.Alternates))
	suggestions = append(suggestions, Candidate{Series: match.Series, Confidence: match.Confidence})
	return append(suggestions, match.Alternates...)
}

// similarSeriesWarning names the similar series a trusted create ignored.
func similarSeriesWarning(name string, match MatchResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "created %q although it resembles existing series %q (confidence %.2f)",
		name, match.Series.Name, match.Confidence)

	alternates := match.Alternates
	if len(alternates) > maxWarningAlternates {
		alternates = alternates[:maxWarningAlternates]
	}
	if len(alternates) > 0 {
		names := make([]string, 0, len(alternates))
		for _, alternate := range alternates {
			names = append(names, fmt.Sprintf("%q", alternate.Series.Name))
		}
		fmt.Fprintf(&builder, "; also similar: %s", strings.Join(names, ", "))
	}

	return builder.String()
}
