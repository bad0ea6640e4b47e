// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import "context"

// # Series Data Access

// Repository defines the data access contract for the series domain.
//
// Lookups that miss return an apperr NOT_FOUND error (see [apperr.IsNotFound]).
// Writes that would break the identity invariant return
// [dberr.ErrIdentityConflict].
type Repository interface {

	/*
		FindByID returns the series with the given ID in any lifecycle state.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Series: The hydrated domain entity
		  - error: NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Series, error)

	/*
		FindByIdentity returns the series whose identity keys match name and
		publisher. Active rows win over soft-deleted ones; among soft-deleted
		rows the most recently deleted wins.

		Parameters:
		  - context: context.Context
		  - name: string (Raw series name)
		  - publisher: string (Raw publisher, empty = absent)

		Returns:
		  - *Series: Matching series
		  - error: NotFound if no row carries this identity
	*/
	FindByIdentity(context context.Context, name, publisher string) (*Series, error)

	/*
		FindByNameAndYear returns a series with the given name (case-insensitive)
		and start year, ignoring publisher. Active rows win.

		Parameters:
		  - context: context.Context
		  - name: string
		  - year: int

		Returns:
		  - *Series: Matching series
		  - error: NotFound if missing
	*/
	FindByNameAndYear(context context.Context, name string, year int) (*Series, error)

	/*
		ListActive returns every Active series ordered by name.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Series: The live catalogue
		  - error: Storage failures
	*/
	ListActive(context context.Context) ([]*Series, error)

	/*
		ListPage returns one page of Active series ordered by name and the total.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Series: Page of series
		  - int: Total Active series
		  - error: Storage failures
	*/
	ListPage(context context.Context, limit, offset int) ([]*Series, int, error)

	/*
		Insert persists a new Active series.

		Parameters:
		  - context: context.Context
		  - series: *Series (ID already assigned)

		Returns:
		  - error: dberr.ErrIdentityConflict when the identity is taken
	*/
	Insert(context context.Context, series *Series) error

	/*
		Update persists the mutable fields of an existing series.

		Parameters:
		  - context: context.Context
		  - series: *Series

		Returns:
		  - error: NotFound, dberr.ErrIdentityConflict or storage failures
	*/
	Update(context context.Context, series *Series) error

	/*
		Restore reactivates a soft-deleted series and its collection memberships.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: dberr.ErrIdentityConflict if an Active series took the identity
	*/
	Restore(context context.Context, id string) error

	/*
		SoftDelete tombstones an Active series and deactivates its collection memberships.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: NotFound if missing or already soft-deleted
	*/
	SoftDelete(context context.Context, id string) error

	/*
		LinkFile points a comic file at a series.

		Parameters:
		  - context: context.Context
		  - fileID: string (UUID)
		  - seriesID: string (UUID)

		Returns:
		  - error: NotFound if the file does not exist
	*/
	LinkFile(context context.Context, fileID, seriesID string) error

	/*
		FileExists reports whether a comic file is known to the library.

		Parameters:
		  - context: context.Context
		  - fileID: string (UUID)

		Returns:
		  - bool: true when the file exists
		  - error: Storage failures
	*/
	FileExists(context context.Context, fileID string) (bool, error)

	/*
		CountFiles returns the number of files owned by a series.

		Parameters:
		  - context: context.Context
		  - seriesID: string (UUID)

		Returns:
		  - int: Owned issue count
		  - error: Storage failures
	*/
	CountFiles(context context.Context, seriesID string) (int, error)

	/*
		WithinTx runs fn inside one storage transaction. The transaction commits
		when fn returns nil and rolls back otherwise.

		Parameters:
		  - context: context.Context
		  - fn: func(MergeTx) error

		Returns:
		  - error: fn's error or commit failures
	*/
	WithinTx(context context.Context, fn func(MergeTx) error) error
}

// # Merge Transaction

// MergeTx exposes the primitives the merge engine composes inside one transaction.
type MergeTx interface {
	FindByID(context context.Context, id string) (*Series, error)
	CountFiles(context context.Context, seriesID string) (int, error)

	// ReassignFiles moves every file of from onto to and returns how many moved.
	ReassignFiles(context context.Context, from, to string) (int, error)

	// MoveCollections moves memberships of from onto to, dropping the ones for
	// collections to already belongs to. Moved memberships are active, since the
	// target is Active when the merge commits. It returns how many moved.
	MoveCollections(context context.Context, from, to string) (int, error)

	// MoveProgress moves per-user progress of from onto to, keeping to's record
	// when a user has both. It returns how many moved.
	MoveProgress(context context.Context, from, to string) (int, error)

	// SetAliases replaces the alias list of a series.
	SetAliases(context context.Context, id string, aliases []string) error

	// Restore reactivates a soft-deleted series and its collection memberships.
	// It reports dberr.ErrIdentityConflict when an Active series took the identity.
	Restore(context context.Context, id string) error

	// Delete permanently removes a series row.
	Delete(context context.Context, id string) error

	// RecomputeProgress rebuilds every user's aggregate progress for a series
	// from file-level progress.
	RecomputeProgress(context context.Context, seriesID string) error
}
