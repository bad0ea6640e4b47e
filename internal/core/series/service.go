// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/validate"
)

// # Service Layer

// Service orchestrates series identity for the scanner and the admin surface.
type Service struct {
	repo      Repository
	resolver  *Resolver
	linker    *Linker
	reports   ReportStore // Optional
	reportTTL time.Duration
	logger    *slog.Logger
}

// NewService constructs a [Service]. reports may be nil, in which case
// duplicate reports are computed but not kept.
func NewService(repo Repository, reports ReportStore, reportTTL time.Duration, logger *slog.Logger) *Service {
	resolver := NewResolver(repo, logger)
	return &Service{
		repo:      repo,
		resolver:  resolver,
		linker:    NewLinker(repo, resolver, logger),
		reports:   reports,
		reportTTL: reportTTL,
		logger:    logger,
	}
}

// # Catalogue

// GetSeries returns one series in any lifecycle state.
func (service *Service) GetSeries(context context.Context, id string) (*Series, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, id)
}

// ListSeries returns a page of Active series and the Active total.
func (service *Service) ListSeries(context context.Context, limit, offset int) ([]*Series, int, error) {
	return service.repo.ListPage(context, limit, offset)
}

// Patch is a user edit. Nil fields are left untouched.
type Patch struct {
	Name        *string           `json:"name"`
	Publisher   *string           `json:"publisher"`
	StartYear   *int              `json:"start_year"`
	EndYear     *int              `json:"end_year"`
	Aliases     *[]string         `json:"aliases"`
	ExternalIDs map[string]string `json:"external_ids"`
	FolderPath  *string           `json:"folder_path"`
}

/*
UpdateSeries applies a user edit and locks every edited field.

Description: Locked fields are exempt from automatic overwrite (folder
definitions, future metadata refreshes), so a user's correction survives
later scans.

Parameters:
  - context: context.Context
  - id: string (UUID)
  - patch: Patch

Returns:
  - *Series: The updated series
  - error: NotFound, ValidationError, Conflict when the new identity is taken
*/
func (service *Service) UpdateSeries(context context.Context, id string, patch Patch) (*Series, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	series, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		validator.Required(FieldName, name).MaxLen(FieldName, name, 500)
		series.Name = name
		series.Lock(FieldName)
	}
	if patch.Publisher != nil {
		publisher := strings.TrimSpace(*patch.Publisher)
		validator.MaxLen(FieldPublisher, publisher, 200)
		series.Publisher = publisher
		series.Lock(FieldPublisher)
	}
	if patch.StartYear != nil {
		validator.Range(FieldStartYear, *patch.StartYear, 1800, 3000)
		series.StartYear = patch.StartYear
		series.Lock(FieldStartYear)
	}
	if patch.EndYear != nil {
		validator.Range(FieldEndYear, *patch.EndYear, 1800, 3000)
		series.EndYear = patch.EndYear
		series.Lock(FieldEndYear)
	}
	if patch.Aliases != nil {
		series.Aliases = mergedAliases(&Series{Name: series.Name}, []*Series{{Aliases: *patch.Aliases}})
		series.Lock(FieldAliases)
	}
	if patch.ExternalIDs != nil {
		series.ExternalIDs = cloneExternalIDs(patch.ExternalIDs)
		series.Lock(FieldExternalIDs)
	}
	if patch.FolderPath != nil {
		series.FolderPath = strings.TrimSpace(*patch.FolderPath)
		series.Lock(FieldFolderPath)
	}
	validator.Custom(FieldEndYear,
		series.StartYear != nil && series.EndYear != nil && *series.EndYear < *series.StartYear,
		"Must not precede start_year")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	series.UpdatedAt = time.Now().UTC()
	if err := service.repo.Update(context, series); err != nil {
		if errors.Is(err, dberr.ErrIdentityConflict) {
			return nil, apperr.Conflict("Another series already uses this name and publisher")
		}
		return nil, err
	}

	service.logger.Info("series_updated",
		slog.String("series_id", series.ID),
		slog.Any("locked_fields", series.LockedFields),
	)

	return series, nil
}

/*
RetireIfOrphaned soft-deletes a series that no longer owns any file.

Description: Called by the cleanup collaborator after it removed files. The
series keeps its identity as a tombstone and is restored when resolution lands
on it again.

Returns:
  - bool: true when the series was soft-deleted
  - error: NotFound, storage failures
*/
func (service *Service) RetireIfOrphaned(context context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	series, err := service.repo.FindByID(context, id)
	if err != nil {
		return false, err
	}
	if !series.Lifecycle.IsActive() {
		return false, nil
	}

	files, err := service.repo.CountFiles(context, id)
	if err != nil {
		return false, err
	}
	if files > 0 {
		return false, nil
	}

	if err := service.repo.SoftDelete(context, id); err != nil {
		return false, err
	}

	service.logger.Info("series_retired", slog.String("series_id", id))
	return true, nil
}

// # Resolution & Linking

// Resolve classifies a query without linking any file.
func (service *Service) Resolve(context context.Context, query Query, session Session) (MatchResult, error) {
	validator := &validate.Validator{}
	validator.Required(FieldSeriesName, query.Name)
	if err := validator.Err(); err != nil {
		return MatchResult{}, err
	}
	return service.resolver.Resolve(context, query, session)
}

// Link places one file with the auto-link policy.
func (service *Service) Link(context context.Context, request LinkRequest, session Session) (LinkOutcome, error) {
	validator := &validate.Validator{}
	validator.Required(FieldFileID, request.FileID).UUID(FieldFileID, request.FileID)
	validator.Required(FieldSeriesName, request.Metadata.SeriesName).MaxLen(FieldSeriesName, request.Metadata.SeriesName, 500)
	if err := validator.Err(); err != nil {
		return LinkOutcome{}, err
	}
	return service.linker.Link(context, request, session)
}

/*
NewScanSession snapshots the Active catalogue into a session-scoped index.

Description: The bulk-scan orchestrator calls this once per scan and passes the
returned session to every [Service.Link] call of that scan. Series created by
workers are added to the index as they appear.

Parameters:
  - context: context.Context
  - folders: FolderRegistry (Optional)

Returns:
  - Session: Session with a fresh [ScanIndex]
  - error: Storage failures
*/
func (service *Service) NewScanSession(context context.Context, folders FolderRegistry) (Session, error) {
	catalogue, err := service.repo.ListActive(context)
	if err != nil {
		return Session{}, err
	}

	index := NewScanIndex(catalogue)
	service.logger.Info("scan_session_started", slog.Int("series_indexed", index.Len()))

	return Session{Cache: index, Folders: folders}, nil
}

// # Deduplication

/*
DetectDuplicates runs the batch detector over the Active catalogue and keeps
the report as the latest one.

Returns:
  - *DuplicateReport: The finished report
  - error: Storage failures; nothing is kept when the run fails
*/
func (service *Service) DetectDuplicates(context context.Context) (*DuplicateReport, error) {
	started := time.Now()

	catalogue, err := service.repo.ListActive(context)
	if err != nil {
		return nil, err
	}

	report := &DuplicateReport{
		GeneratedAt:   time.Now().UTC(),
		SeriesScanned: len(catalogue),
		Groups:        DetectDuplicates(catalogue),
	}

	if service.reports != nil {
		if err := service.reports.Save(context, *report, service.reportTTL); err != nil {
			return nil, err
		}
	}

	service.logger.Info("duplicate_scan_finished",
		slog.Int("series_scanned", report.SeriesScanned),
		slog.Int("groups", len(report.Groups)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return report, nil
}

/*
LatestDuplicates returns the last stored report.

Parameters:
  - context: context.Context
  - minimum: GroupConfidence (Optional, drops groups below this tier)

Returns:
  - *DuplicateReport: The stored report, filtered
  - error: ValidationError for an unknown tier, NotFound when nothing is stored
*/
func (service *Service) LatestDuplicates(context context.Context, minimum GroupConfidence) (*DuplicateReport, error) {
	if minimum != "" {
		validator := &validate.Validator{}
		validator.OneOf(FieldConfidence, string(minimum),
			string(ConfidenceHigh), string(ConfidenceMedium), string(ConfidenceLow))
		if err := validator.Err(); err != nil {
			return nil, err
		}
	}

	if service.reports == nil {
		return nil, apperr.NotFound("Duplicate report")
	}

	report, err := service.reports.Latest(context)
	if err != nil {
		return nil, err
	}

	report.Groups = FilterGroups(report.Groups, minimum)
	return report, nil
}

// # Merging

// PreviewMerge projects a merge without writing anything.
func (service *Service) PreviewMerge(context context.Context, request MergeRequest) (*MergePreview, error) {
	if err := validateMergeRequest(request); err != nil {
		return nil, err
	}
	return previewMerge(context, service.repo, request)
}

/*
ExecuteMerge applies a merge atomically.

Parameters:
  - context: context.Context
  - request: MergeRequest

Returns:
  - *MergeResult: Counters of the applied merge
  - error: ValidationError, NotFound for a missing source, storage failures
*/
func (service *Service) ExecuteMerge(context context.Context, request MergeRequest) (*MergeResult, error) {
	if err := validateMergeRequest(request); err != nil {
		return nil, err
	}

	var result *MergeResult
	err := service.repo.WithinTx(context, func(tx MergeTx) error {
		var err error
		result, err = executeMerge(context, tx, request)
		return err
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("series_merged",
		slog.String("target_id", result.TargetID),
		slog.Any("source_ids", result.MergedSourceIDs),
		slog.Int("issues_moved", result.IssuesMoved),
	)

	return result, nil
}

func validateMergeRequest(request MergeRequest) error {
	validator := &validate.Validator{}
	validator.Required(FieldTargetID, request.TargetID).
		Custom(FieldSourceIDs, len(distinctIDs(request.SourceIDs)) == 0, "At least one source is required")
	return validator.Err()
}

func validateID(id string) error {
	validator := &validate.Validator{}
	validator.UUID(FieldID, id)
	return validator.Err()
}
