package schema

import "github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"

// LibrarySeriesProgressTable represents the 'library.seriesprogress' table
type LibrarySeriesProgressTable struct {
	Table       string
	UserID      string
	SeriesID    string
	IssuesRead  string
	TotalIssues string
	UpdatedAt   string
}

// LibrarySeriesProgress is the schema definition for library.seriesprogress
var LibrarySeriesProgress = LibrarySeriesProgressTable{
	Table:       constants.SchemaLibrary + ".seriesprogress",
	UserID:      "userid",
	SeriesID:    "seriesid",
	IssuesRead:  "issuesread",
	TotalIssues: "totalissues",
	UpdatedAt:   "updatedat",
}
