// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package series owns the canonical Series records of the comic library.

It decides, for every incoming comic file, which Series the file belongs to,
creates a Series when nothing fits, detects Series that are duplicates of each
other, and merges them without losing reading history, collection membership
or user edits.

Core Responsibility:

  - Identity: (name, publisher) is unique among Active series; year is not part of it.
  - Resolution: exact, partial, fuzzy, folder-defined and scan-cache matching.
  - Linking: turns a match into link / create / needs-confirmation decisions.
  - Deduplication: batch detection of duplicate groups and atomic merges.

This package is the source of truth for series identity across the scanner and
the administrative endpoints.
*/
package series

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/pkg/pointer"
)

// # Lifecycle

// State is the lifecycle state of a [Series].
type State string

const (
	// StateActive series participate in matching and own files.
	StateActive State = "active"

	// StateSoftDeleted series lost their last file; they are restored when
	// resolution lands on them again.
	StateSoftDeleted State = "soft_deleted"
)

// Lifecycle couples the state with its deletion timestamp so that a deletion
// time can only exist on a soft-deleted series.
type Lifecycle struct {
	state     State
	deletedAt time.Time
}

// Active returns the lifecycle of a live series.
func Active() Lifecycle {
	return Lifecycle{state: StateActive}
}

// SoftDeleted returns the lifecycle of a series tombstoned at the given time.
func SoftDeleted(at time.Time) Lifecycle {
	return Lifecycle{state: StateSoftDeleted, deletedAt: at}
}

// LifecycleFromTimestamp maps the nullable storage column onto a [Lifecycle].
func LifecycleFromTimestamp(deletedAt *time.Time) Lifecycle {
	if deletedAt == nil {
		return Active()
	}
	return SoftDeleted(*deletedAt)
}

// State reports the current lifecycle state. The zero value is Active.
func (lifecycle Lifecycle) State() State {
	if lifecycle.state == "" {
		return StateActive
	}
	return lifecycle.state
}

// IsActive reports whether the series is live.
func (lifecycle Lifecycle) IsActive() bool {
	return lifecycle.State() == StateActive
}

// DeletedAt returns the tombstone time and whether the series is soft-deleted.
func (lifecycle Lifecycle) DeletedAt() (time.Time, bool) {
	if lifecycle.State() != StateSoftDeleted {
		return time.Time{}, false
	}
	return lifecycle.deletedAt, true
}

// Timestamp maps the lifecycle back onto the nullable storage column.
func (lifecycle Lifecycle) Timestamp() *time.Time {
	at, deleted := lifecycle.DeletedAt()
	if !deleted {
		return nil
	}
	return &at
}

// lifecycleJSON is the wire form of a [Lifecycle].
type lifecycleJSON struct {
	State     State      `json:"state"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// MarshalJSON implements [json.Marshaler].
func (lifecycle Lifecycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(lifecycleJSON{State: lifecycle.State(), DeletedAt: lifecycle.Timestamp()})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (lifecycle *Lifecycle) UnmarshalJSON(data []byte) error {
	var wire lifecycleJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.State == StateSoftDeleted && wire.DeletedAt != nil {
		*lifecycle = SoftDeleted(*wire.DeletedAt)
		return nil
	}
	*lifecycle = Active()
	return nil
}

// # Core Entities

// Series is the canonical record every comic file is linked to.
type Series struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Publisher    string            `json:"publisher,omitempty"` // Empty = absent
	StartYear    *int              `json:"start_year,omitempty"`
	EndYear      *int              `json:"end_year,omitempty"`
	Aliases      []string          `json:"aliases"`                // Ordered, distinct (case-insensitive)
	ExternalIDs  map[string]string `json:"external_ids,omitempty"` // Keyed by cataloguing service (e.g. "comicvine")
	LockedFields []string          `json:"locked_fields"`          // Exempt from automatic overwrite
	FolderPath   string            `json:"folder_path,omitempty"`
	Lifecycle    Lifecycle         `json:"lifecycle"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsLocked reports whether field is exempt from automatic overwrite.
func (series *Series) IsLocked(field string) bool {
	for _, locked := range series.LockedFields {
		if locked == field {
			return true
		}
	}
	return false
}

// Lock marks field as user-owned.
func (series *Series) Lock(field string) {
	if !series.IsLocked(field) {
		series.LockedFields = append(series.LockedFields, field)
	}
}

// HasAlias reports whether name is the series name or one of its aliases,
// compared case-insensitively.
func (series *Series) HasAlias(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(series.Name, name) {
		return true
	}
	for _, alias := range series.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the series.
func (series *Series) Clone() *Series {
	if series == nil {
		return nil
	}
	clone := *series
	clone.Aliases = append(make([]string, 0, len(series.Aliases)), series.Aliases...)
	clone.LockedFields = append(make([]string, 0, len(series.LockedFields)), series.LockedFields...)
	if series.StartYear != nil {
		clone.StartYear = pointer.To(*series.StartYear)
	}
	if series.EndYear != nil {
		clone.EndYear = pointer.To(*series.EndYear)
	}
	if series.ExternalIDs != nil {
		clone.ExternalIDs = make(map[string]string, len(series.ExternalIDs))
		for kind, value := range series.ExternalIDs {
			clone.ExternalIDs[kind] = value
		}
	}
	return &clone
}

// Metadata is what the archive/filename parsing collaborators know about a file.
type Metadata struct {
	SeriesName  string            `json:"series_name"`
	Year        *int              `json:"year,omitempty"`
	Publisher   string            `json:"publisher,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	FolderPath  string            `json:"folder_path,omitempty"` // Folder containing the file
}

// # Match Results

// MatchType classifies how a [MatchResult] was found.
type MatchType string

const (
	MatchExact         MatchType = "exact"
	MatchPartial       MatchType = "partial"
	MatchFuzzy         MatchType = "fuzzy"
	MatchFolderDefined MatchType = "folder_defined"
	MatchNone          MatchType = "none"
)

// Candidate is a scored series considered during fuzzy resolution.
type Candidate struct {
	Series     *Series `json:"series"`
	Confidence float64 `json:"confidence"`
}

// MatchResult is the outcome of resolving one file's metadata.
type MatchResult struct {
	Type       MatchType   `json:"type"`
	Series     *Series     `json:"series,omitempty"`
	Confidence float64     `json:"confidence"`
	Alternates []Candidate `json:"alternates,omitempty"`
}

// noMatch is the MatchResult for an unresolved file.
func noMatch() MatchResult {
	return MatchResult{Type: MatchNone}
}

// # Thresholds

// The thresholds are fixed values carried over for behavioural compatibility.
const (
	// AutoLinkThreshold is the confidence at which a match links without review.
	AutoLinkThreshold = 0.9

	// FuzzyThreshold is the lowest confidence a fuzzy candidate may have.
	FuzzyThreshold = 0.7

	// FolderThreshold is the lowest confidence a folder definition may have.
	FolderThreshold = 0.8

	// PartialConfidence is reported for name + year matches.
	PartialConfidence = 0.9

	// SimilarNameThreshold opens the fuzzy-name duplicate band [0.8, 1.0).
	SimilarNameThreshold = 0.8

	// ModerateNameThreshold opens the same-publisher duplicate band [0.6, 0.8).
	ModerateNameThreshold = 0.6

	yearBoost      = 0.10
	publisherBoost = 0.05
)

// # Field Identifiers

// Field names used by locked fields, validation and storage mapping.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldPublisher   = "publisher"
	FieldStartYear   = "start_year"
	FieldEndYear     = "end_year"
	FieldAliases     = "aliases"
	FieldExternalIDs = "external_ids"
	FieldFolderPath  = "folder_path"
	FieldFileID      = "file_id"
	FieldSeriesName  = "series_name"
	FieldTargetID    = "target_id"
	FieldSourceIDs   = "source_ids"
	FieldConfidence  = "confidence"
)
