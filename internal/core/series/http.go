// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/middleware"
	requestutil "github.com/RolldeoDev/Helixio-sub007/internal/platform/request"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/respond"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for series identity and deduplication.
type Handler struct {
	service *Service
}

// NewHandler constructs a new series [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the series domain's endpoints.
//
// # Routing Strategy
//
//   - Catalogue (Public): Browsing series and the latest duplicate report.
//   - Identity (Restricted): Resolution, linking, edits, merges and scans
//     require [sec.RoleAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Catalogue
	router.Get("/", handler.listSeries)
	router.Get("/duplicates", handler.latestDuplicates)
	router.Get("/{id}", handler.getSeries)

	// ## Identity Management (Admin Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Patch("/{id}", handler.updateSeries)
		admin.Post("/{id}/retire", handler.retireSeries)

		admin.Post("/resolve", handler.resolve)
		admin.Post("/link", handler.link)

		admin.Post("/duplicates/scan", handler.scanDuplicates)

		admin.Post("/merge/preview", handler.previewMerge)
		admin.Post("/merge", handler.executeMerge)
	})

	return router
}

// # Catalogue Endpoints

/*
GET /api/v1/series.

Description: Retrieves a paginated list of Active series ordered by name.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Series: Paginated list of series
*/
func (handler *Handler) listSeries(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	series, total, err := handler.service.ListSeries(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, series, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/series/{id}.

Description: Retrieves one series in any lifecycle state.

Response:
  - 200: Series: Success
  - 400: ErrValidation: Malformed ID
  - 404: ErrNotFound: Series not found
*/
func (handler *Handler) getSeries(writer http.ResponseWriter, request *http.Request) {
	series, err := handler.service.GetSeries(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, series)
}

/*
PATCH /api/v1/series/{id}.

Description: Applies a user edit. Every edited field becomes locked against
automatic overwrite.

Request (Body):
  - Patch: Partial series fields

Response:
  - 200: Series: Updated series
  - 400: ErrValidation: Invalid fields
  - 409: ErrConflict: Name and publisher already taken
*/
func (handler *Handler) updateSeries(writer http.ResponseWriter, request *http.Request) {
	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	series, err := handler.service.UpdateSeries(request.Context(), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, series)
}

/*
POST /api/v1/series/{id}/retire.

Description: Soft-deletes the series if no file references it anymore.

Response:
  - 200: {retired: bool}
*/
func (handler *Handler) retireSeries(writer http.ResponseWriter, request *http.Request) {
	retired, err := handler.service.RetireIfOrphaned(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"retired": retired})
}

// # Resolution Endpoints

/*
POST /api/v1/series/resolve.

Description: Classifies a series query against the catalogue without linking.

Request (Body):
  - Query: name, year, publisher

Response:
  - 200: MatchResult: Match type, series, confidence and alternates
*/
func (handler *Handler) resolve(writer http.ResponseWriter, request *http.Request) {
	var query Query
	if err := requestutil.DecodeJSON(request, &query); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Folder definitions belong to scans; an ad-hoc query never creates series
	query.FolderPath = ""

	result, err := handler.service.Resolve(request.Context(), query, Session{})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
POST /api/v1/series/link.

Description: Places one file with the auto-link policy.

Request (Body):
  - LinkRequest: file_id, metadata, trust_metadata

Response:
  - 200: LinkOutcome (linked, needs_confirmation)
  - 201: LinkOutcome (created)
  - 404: ErrNotFound: File not found
*/
func (handler *Handler) link(writer http.ResponseWriter, request *http.Request) {
	var input LinkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.Link(request.Context(), input, Session{})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if outcome.Status == LinkStatusCreated {
		respond.Created(writer, outcome)
		return
	}
	respond.OK(writer, outcome)
}

// # Deduplication Endpoints

/*
GET /api/v1/series/duplicates.

Description: Returns the latest finished duplicate report.

Request:
  - confidence: string (high, medium, low; minimum tier to include)

Response:
  - 200: DuplicateReport: Success
  - 404: ErrNotFound: No scan has finished yet
*/
func (handler *Handler) latestDuplicates(writer http.ResponseWriter, request *http.Request) {
	minimum := GroupConfidence(request.URL.Query().Get("confidence"))

	report, err := handler.service.LatestDuplicates(request.Context(), minimum)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, report)
}

/*
POST /api/v1/series/duplicates/scan.

Description: Runs the batch duplicate detector and stores the report.

Response:
  - 200: DuplicateReport: The new report
*/
func (handler *Handler) scanDuplicates(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.service.DetectDuplicates(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, report)
}

// # Merge Endpoints

/*
POST /api/v1/series/merge/preview.

Description: Projects a merge without applying it.

Request (Body):
  - MergeRequest: target_id, source_ids

Response:
  - 200: MergePreview: Projected aliases, issue totals and warnings
  - 400: ErrValidation: Missing target or empty sources
*/
func (handler *Handler) previewMerge(writer http.ResponseWriter, request *http.Request) {
	var input MergeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	preview, err := handler.service.PreviewMerge(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, preview)
}

/*
POST /api/v1/series/merge.

Description: Folds the sources into the target atomically.

Request (Body):
  - MergeRequest: target_id, source_ids

Response:
  - 200: MergeResult: Applied counters
  - 400: ErrValidation: Invalid request or self merge
  - 404: ErrNotFound: A source does not exist
*/
func (handler *Handler) executeMerge(writer http.ResponseWriter, request *http.Request) {
	var input MergeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.ExecuteMerge(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
