// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package series provides the PostgreSQL implementation of the series catalogue.

The identity invariant lives in the database: a partial unique index on
(namekey, publisherkey) WHERE deletedat IS NULL rejects a second Active series
with the same identity, and the rejection surfaces as
[dberr.ErrIdentityConflict]. Multi-statement writes (restore, soft delete,
merge) run inside one transaction.
*/
package series

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/database/schema"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/postgres"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(context context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(context context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(context context.Context, sql string, arguments ...any) pgx.Row
}

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed series store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// seriesColumns is the projection matching [scanSeries].
var seriesColumns = strings.Join(schema.CoreSeries.Columns(), ", ")

// FindByID returns a series in any lifecycle state.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Series, error) {
	return findSeriesByID(context, repository.pool, id)
}

/*
FindByIdentity returns the series owning an identity, Active first.

Description: The identity keys are computed with [IdentityKey] on write, so
the lookup is an index hit. Soft-deleted rows are only returned when no Active
row carries the identity, newest tombstone first.
*/
func (repository *PostgresRepository) FindByIdentity(context context.Context, name, publisher string) (*Series, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY (%s IS NULL) DESC, %s DESC NULLS LAST
		LIMIT 1`,
		seriesColumns, schema.CoreSeries.Table,
		schema.CoreSeries.NameKey, schema.CoreSeries.PublisherKey,
		schema.CoreSeries.DeletedAt, schema.CoreSeries.DeletedAt,
	)

	series, err := scanSeries(repository.pool.QueryRow(context, query, IdentityKey(name), IdentityKey(publisher)))
	if err != nil {
		return nil, dberr.WrapResource(err, "find_series_by_identity", "Series")
	}
	return series, nil
}

// FindByNameAndYear matches a name and start year, ignoring publisher.
func (repository *PostgresRepository) FindByNameAndYear(context context.Context, name string, year int) (*Series, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY (%s IS NULL) DESC, %s ASC, %s ASC
		LIMIT 1`,
		seriesColumns, schema.CoreSeries.Table,
		schema.CoreSeries.NameKey, schema.CoreSeries.StartYear,
		schema.CoreSeries.DeletedAt, schema.CoreSeries.CreatedAt, schema.CoreSeries.ID,
	)

	series, err := scanSeries(repository.pool.QueryRow(context, query, IdentityKey(name), year))
	if err != nil {
		return nil, dberr.WrapResource(err, "find_series_by_name_and_year", "Series")
	}
	return series, nil
}

// ListActive returns the live catalogue ordered by name.
func (repository *PostgresRepository) ListActive(context context.Context) ([]*Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NULL ORDER BY %s ASC, %s ASC`,
		seriesColumns, schema.CoreSeries.Table, schema.CoreSeries.DeletedAt,
		schema.CoreSeries.NameKey, schema.CoreSeries.ID,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_active_series")
	}
	defer rows.Close()

	catalogue := make([]*Series, 0)
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_series")
		}
		catalogue = append(catalogue, series)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_active_series")
	}

	return catalogue, nil
}

/*
ListPage returns one page of Active series.

Description: Uses COUNT(*) OVER() to retrieve the total alongside the page in a
single round-trip.
*/
func (repository *PostgresRepository) ListPage(context context.Context, limit, offset int) ([]*Series, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s IS NULL
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2`,
		seriesColumns, schema.CoreSeries.Table, schema.CoreSeries.DeletedAt,
		schema.CoreSeries.NameKey, schema.CoreSeries.ID,
	)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_series_page")
	}
	defer rows.Close()

	page := make([]*Series, 0, limit)
	total := 0
	for rows.Next() {
		series, err := scanSeries(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_series")
		}
		page = append(page, series)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_series_page")
	}

	return page, total, nil
}

// Insert persists a new Active series; a taken identity is [dberr.ErrIdentityConflict].
func (repository *PostgresRepository) Insert(context context.Context, series *Series) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		schema.CoreSeries.Table,
		schema.CoreSeries.ID, schema.CoreSeries.Name, schema.CoreSeries.NameKey,
		schema.CoreSeries.Publisher, schema.CoreSeries.PublisherKey,
		schema.CoreSeries.StartYear, schema.CoreSeries.EndYear,
		schema.CoreSeries.Aliases, schema.CoreSeries.ExternalIDs, schema.CoreSeries.LockedFields,
		schema.CoreSeries.FolderPath, schema.CoreSeries.CreatedAt, schema.CoreSeries.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		series.ID, series.Name, IdentityKey(series.Name),
		series.Publisher, IdentityKey(series.Publisher),
		series.StartYear, series.EndYear,
		orEmpty(series.Aliases), externalIDsOrEmpty(series.ExternalIDs), orEmpty(series.LockedFields),
		series.FolderPath, series.CreatedAt, series.UpdatedAt,
	)
	return dberr.Wrap(err, "insert_series")
}

// Update persists the mutable fields of a series.
func (repository *PostgresRepository) Update(context context.Context, series *Series) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7,
			%s = $8, %s = $9, %s = $10, %s = $11, %s = $12
		WHERE %s = $1`,
		schema.CoreSeries.Table,
		schema.CoreSeries.Name, schema.CoreSeries.NameKey,
		schema.CoreSeries.Publisher, schema.CoreSeries.PublisherKey,
		schema.CoreSeries.StartYear, schema.CoreSeries.EndYear,
		schema.CoreSeries.Aliases, schema.CoreSeries.ExternalIDs, schema.CoreSeries.LockedFields,
		schema.CoreSeries.FolderPath, schema.CoreSeries.UpdatedAt,
		schema.CoreSeries.ID,
	)

	tag, err := repository.pool.Exec(context, query,
		series.ID,
		series.Name, IdentityKey(series.Name),
		series.Publisher, IdentityKey(series.Publisher),
		series.StartYear, series.EndYear,
		orEmpty(series.Aliases), externalIDsOrEmpty(series.ExternalIDs), orEmpty(series.LockedFields),
		series.FolderPath, series.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_series")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Series")
	}
	return nil
}

/*
Restore reactivates a soft-deleted series and its collection memberships in one
transaction. Restoring an Active series is a no-op.
*/
func (repository *PostgresRepository) Restore(context context.Context, id string) error {
	return postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		return restoreSeries(context, transaction, id)
	})
}

// SoftDelete tombstones an Active series and deactivates its collection memberships.
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	return postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		now := time.Now().UTC()

		query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $2 WHERE %s = $1 AND %s IS NULL`,
			schema.CoreSeries.Table, schema.CoreSeries.DeletedAt, schema.CoreSeries.UpdatedAt,
			schema.CoreSeries.ID, schema.CoreSeries.DeletedAt,
		)
		tag, err := transaction.Exec(context, query, id, now)
		if err != nil {
			return dberr.Wrap(err, "soft_delete_series")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Series")
		}

		membership := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 AND %s IS NULL`,
			schema.LibraryCollectionItem.Table, schema.LibraryCollectionItem.DeactivatedAt,
			schema.LibraryCollectionItem.SeriesID, schema.LibraryCollectionItem.DeactivatedAt,
		)
		if _, err := transaction.Exec(context, membership, id, now); err != nil {
			return dberr.Wrap(err, "deactivate_series_collections")
		}

		return nil
	})
}

// LinkFile points a comic file at a series.
func (repository *PostgresRepository) LinkFile(context context.Context, fileID, seriesID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.CoreComicFile.Table, schema.CoreComicFile.SeriesID, schema.CoreComicFile.UpdatedAt,
		schema.CoreComicFile.ID,
	)

	tag, err := repository.pool.Exec(context, query, fileID, seriesID, time.Now().UTC())
	if err != nil {
		return dberr.Wrap(err, "link_file")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("File")
	}
	return nil
}

// FileExists reports whether a comic file row exists.
func (repository *PostgresRepository) FileExists(context context.Context, fileID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.CoreComicFile.Table, schema.CoreComicFile.ID,
	)

	var exists bool
	if err := repository.pool.QueryRow(context, query, fileID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "file_exists")
	}
	return exists, nil
}

// CountFiles returns the number of files owned by a series.
func (repository *PostgresRepository) CountFiles(context context.Context, seriesID string) (int, error) {
	return countFiles(context, repository.pool, seriesID)
}

// WithinTx runs fn inside one transaction.
func (repository *PostgresRepository) WithinTx(context context.Context, fn func(MergeTx) error) error {
	return postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		return fn(&postgresMergeTx{db: transaction})
	})
}

// # Shared Queries

func findSeriesByID(context context.Context, db querier, id string) (*Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		seriesColumns, schema.CoreSeries.Table, schema.CoreSeries.ID,
	)

	series, err := scanSeries(db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.WrapResource(err, "find_series_by_id", "Series")
	}
	return series, nil
}

// restoreSeries clears the tombstone of id and reactivates its memberships.
// Call it inside a transaction.
func restoreSeries(context context.Context, db querier, id string) error {
	if _, err := findSeriesByID(context, db, id); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = $2 WHERE %s = $1 AND %s IS NOT NULL`,
		schema.CoreSeries.Table, schema.CoreSeries.DeletedAt, schema.CoreSeries.UpdatedAt,
		schema.CoreSeries.ID, schema.CoreSeries.DeletedAt,
	)
	if _, err := db.Exec(context, query, id, time.Now().UTC()); err != nil {
		return dberr.Wrap(err, "restore_series")
	}

	membership := fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s = $1 AND %s IS NOT NULL`,
		schema.LibraryCollectionItem.Table, schema.LibraryCollectionItem.DeactivatedAt,
		schema.LibraryCollectionItem.SeriesID, schema.LibraryCollectionItem.DeactivatedAt,
	)
	if _, err := db.Exec(context, membership, id); err != nil {
		return dberr.Wrap(err, "restore_series_collections")
	}

	return nil
}

func countFiles(context context.Context, db querier, seriesID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		schema.CoreComicFile.Table, schema.CoreComicFile.SeriesID,
	)

	var count int
	if err := db.QueryRow(context, query, seriesID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_series_files")
	}
	return count, nil
}

// scanSeries reads one row in [seriesColumns] order. Extra destinations are
// scanned after the series columns.
func scanSeries(row pgx.Row, extra ...any) (*Series, error) {
	series := &Series{}
	var deletedAt *time.Time

	destinations := []any{
		&series.ID, &series.Name, &series.Publisher, &series.StartYear, &series.EndYear,
		&series.Aliases, &series.ExternalIDs, &series.LockedFields, &series.FolderPath,
		&series.CreatedAt, &series.UpdatedAt, &deletedAt,
	}
	if err := row.Scan(append(destinations, extra...)...); err != nil {
		return nil, err
	}

	series.Lifecycle = LifecycleFromTimestamp(deletedAt)
	series.Aliases = orEmpty(series.Aliases)
	series.LockedFields = orEmpty(series.LockedFields)
	return series, nil
}

// orEmpty keeps NOT NULL array columns from receiving NULL.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func externalIDsOrEmpty(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}
