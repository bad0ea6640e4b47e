// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/database/schema"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
)

// # Merge Transaction

// postgresMergeTx implements [MergeTx] on an open pgx transaction.
type postgresMergeTx struct {
	db pgx.Tx
}

func (transaction *postgresMergeTx) FindByID(context context.Context, id string) (*Series, error) {
	return findSeriesByID(context, transaction.db, id)
}

func (transaction *postgresMergeTx) CountFiles(context context.Context, seriesID string) (int, error) {
	return countFiles(context, transaction.db, seriesID)
}

// ReassignFiles moves every file of from onto to.
func (transaction *postgresMergeTx) ReassignFiles(context context.Context, from, to string) (int, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.CoreComicFile.Table, schema.CoreComicFile.SeriesID, schema.CoreComicFile.UpdatedAt,
		schema.CoreComicFile.SeriesID,
	)

	tag, err := transaction.db.Exec(context, query, from, to, time.Now().UTC())
	if err != nil {
		return 0, dberr.Wrap(err, "reassign_files")
	}
	return int(tag.RowsAffected()), nil
}

/*
MoveCollections moves collection memberships of from onto to.

Description: Memberships of collections that already contain the target are
deleted first so each collection keeps a single entry for the target. Moved
memberships are reactivated; the target is Active once the merge commits.
*/
func (transaction *postgresMergeTx) MoveCollections(context context.Context, from, to string) (int, error) {
	item := schema.LibraryCollectionItem

	dropDuplicates := fmt.Sprintf(`
		DELETE FROM %s s
		WHERE s.%s = $1
		  AND EXISTS (SELECT 1 FROM %s t WHERE t.%s = $2 AND t.%s = s.%s)`,
		item.Table, item.SeriesID,
		item.Table, item.SeriesID, item.CollectionID, item.CollectionID,
	)
	if _, err := transaction.db.Exec(context, dropDuplicates, from, to); err != nil {
		return 0, dberr.Wrap(err, "drop_duplicate_collections")
	}

	move := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NULL WHERE %s = $1`,
		item.Table, item.SeriesID, item.DeactivatedAt, item.SeriesID,
	)
	tag, err := transaction.db.Exec(context, move, from, to)
	if err != nil {
		return 0, dberr.Wrap(err, "move_collections")
	}
	return int(tag.RowsAffected()), nil
}

// MoveProgress moves per-user series progress of from onto to; the target's
// record wins when a user has both.
func (transaction *postgresMergeTx) MoveProgress(context context.Context, from, to string) (int, error) {
	progress := schema.LibrarySeriesProgress

	dropDuplicates := fmt.Sprintf(`
		DELETE FROM %s s
		WHERE s.%s = $1
		  AND EXISTS (SELECT 1 FROM %s t WHERE t.%s = $2 AND t.%s = s.%s)`,
		progress.Table, progress.SeriesID,
		progress.Table, progress.SeriesID, progress.UserID, progress.UserID,
	)
	if _, err := transaction.db.Exec(context, dropDuplicates, from, to); err != nil {
		return 0, dberr.Wrap(err, "drop_duplicate_progress")
	}

	move := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, progress.Table, progress.SeriesID, progress.SeriesID)
	tag, err := transaction.db.Exec(context, move, from, to)
	if err != nil {
		return 0, dberr.Wrap(err, "move_progress")
	}
	return int(tag.RowsAffected()), nil
}

// SetAliases replaces the alias list of a series.
func (transaction *postgresMergeTx) SetAliases(context context.Context, id string, aliases []string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.CoreSeries.Table, schema.CoreSeries.Aliases, schema.CoreSeries.UpdatedAt, schema.CoreSeries.ID,
	)

	tag, err := transaction.db.Exec(context, query, id, orEmpty(aliases), time.Now().UTC())
	if err != nil {
		return dberr.Wrap(err, "set_series_aliases")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Series")
	}
	return nil
}

// Restore reactivates a soft-deleted merge target inside the merge transaction.
func (transaction *postgresMergeTx) Restore(context context.Context, id string) error {
	return restoreSeries(context, transaction.db, id)
}

// Delete permanently removes a series row.
func (transaction *postgresMergeTx) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.CoreSeries.Table, schema.CoreSeries.ID)

	tag, err := transaction.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_series")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Series")
	}
	return nil
}

/*
RecomputeProgress rebuilds the aggregate progress of every reader of a series.

Description: Both statements are pipelined with pgx.Batch. The first refreshes
the issue total of existing rows; the second upserts issues read per user from
file-level progress.
*/
func (transaction *postgresMergeTx) RecomputeProgress(context context.Context, seriesID string) error {
	progress, files, reads := schema.LibrarySeriesProgress, schema.CoreComicFile, schema.LibraryFileProgress
	now := time.Now().UTC()

	refreshTotals := fmt.Sprintf(`
		UPDATE %s SET %s = (SELECT COUNT(*) FROM %s WHERE %s = $1), %s = $2
		WHERE %s = $1`,
		progress.Table, progress.TotalIssues, files.Table, files.SeriesID, progress.UpdatedAt,
		progress.SeriesID,
	)

	upsertReads := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		SELECT r.%s, $1,
		       COUNT(*) FILTER (WHERE r.%s),
		       (SELECT COUNT(*) FROM %s WHERE %s = $1),
		       $2
		FROM %s r
		JOIN %s f ON f.%s = r.%s
		WHERE f.%s = $1
		GROUP BY r.%s
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s`,
		progress.Table, progress.UserID, progress.SeriesID, progress.IssuesRead, progress.TotalIssues, progress.UpdatedAt,
		reads.UserID,
		reads.Completed,
		files.Table, files.SeriesID,
		reads.Table,
		files.Table, files.ID, reads.FileID,
		files.SeriesID,
		reads.UserID,
		progress.UserID, progress.SeriesID,
		progress.IssuesRead, progress.IssuesRead,
		progress.TotalIssues, progress.TotalIssues,
		progress.UpdatedAt, progress.UpdatedAt,
	)

	batch := &pgx.Batch{}
	batch.Queue(refreshTotals, seriesID, now)
	batch.Queue(upsertReads, seriesID, now)

	response := transaction.db.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return dberr.Wrap(err, "recompute_series_progress")
	}
	return nil
}
