package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/custody"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

const entryColumns = `id::text, user_id, catalog_id::text, status, progress, rating, review, added_at, updated_at, version`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.UserID, &e.CatalogID, &e.Status, &e.Progress, &e.Rating, &e.Review,
		&e.AddedAt, &e.UpdatedAt, &e.Version,
	)
	return e, err
}

var errNoEntry = apperr.NotFound("Book is not in your library.")

func (r *PostgresRepo) Create(ctx context.Context, e Entry, rec custody.Record) (Entry, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Entry{}, false, fmt.Errorf("begin add entry: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO library_entries (id, user_id, catalog_id, status, progress, rating, review, added_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		ON CONFLICT (user_id, catalog_id) DO NOTHING`

	tag, err := tx.Exec(ctx, insertSQL,
		e.ID, e.UserID, e.CatalogID, e.Status, e.Progress, e.Rating, e.Review, e.AddedAt, e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("insert library entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := scanEntry(tx.QueryRow(ctx,
			`SELECT `+entryColumns+` FROM library_entries WHERE user_id = $1 AND catalog_id = $2`,
			e.UserID, e.CatalogID,
		))
		if err != nil {
			return Entry{}, false, fmt.Errorf("get existing library entry: %w", err)
		}
		return existing, false, nil
	}

	if err := custody.InsertTx(ctx, tx, rec); err != nil {
		return Entry{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, false, fmt.Errorf("commit add entry: %w", err)
	}

	e.Version = 1
	return e, true, nil
}

func (r *PostgresRepo) Get(ctx context.Context, userID, catalogID string) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	e, err := scanEntry(r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM library_entries WHERE user_id = $1 AND catalog_id = $2`,
		userID, catalogID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, errNoEntry
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get library entry: %w", err)
	}
	return e, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM library_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.NotFound("Library entry not found.")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get library entry by id: %w", err)
	}
	return e, nil
}

func (r *PostgresRepo) Update(ctx context.Context, e Entry) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const updateSQL = `
		UPDATE library_entries SET
			status = $3,
			progress = $4,
			rating = $5,
			review = $6,
			updated_at = $7,
			version = version + 1
		WHERE user_id = $1 AND catalog_id = $2 AND version = $8
		RETURNING version`

	var version int64
	err := r.db.QueryRow(ctx, updateSQL,
		e.UserID, e.CatalogID, e.Status, e.Progress, e.Rating, e.Review, e.UpdatedAt, e.Version,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, r.missOrConflict(ctx, e.UserID, e.CatalogID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("update library entry: %w", err)
	}

	e.Version = version
	return e, nil
}

func (r *PostgresRepo) missOrConflict(ctx context.Context, userID, catalogID string) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM library_entries WHERE user_id = $1 AND catalog_id = $2)`,
		userID, catalogID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check library entry: %w", err)
	}
	if !exists {
		return errNoEntry
	}
	return apperr.Conflict("Library entry was changed by another request, retry.")
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, catalogID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove entry: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM custody_records WHERE user_id = $1 AND catalog_id = $2`, userID, catalogID,
	); err != nil {
		return fmt.Errorf("delete custody record: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM library_entries WHERE user_id = $1 AND catalog_id = $2`, userID, catalogID,
	)
	if err != nil {
		return fmt.Errorf("delete library entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errNoEntry
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit remove entry: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresRepo) List(ctx context.Context, userID string, q ListQuery) ([]Entry, int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ds := goqu.Dialect("postgres").
		From(goqu.T("library_entries").As("l")).
		Join(goqu.T("catalog_entries").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("l.catalog_id")))).
		Where(goqu.I("l.user_id").Eq(userID))
	if q.Status != "" {
		ds = ds.Where(goqu.I("l.status").Eq(string(q.Status)))
	}
	if q.Q != "" {
		pattern := "%" + likeEscaper.Replace(q.Q) + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("c.title").ILike(pattern),
			goqu.L("array_to_string(c.authors, ' ')").ILike(pattern),
		))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build library count query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count library entries: %w", err)
	}

	page := ds.Select(
		goqu.L("l.id::text"), goqu.I("l.user_id"), goqu.L("l.catalog_id::text"), goqu.I("l.status"),
		goqu.I("l.progress"), goqu.I("l.rating"), goqu.I("l.review"), goqu.I("l.added_at"),
		goqu.I("l.updated_at"), goqu.I("l.version"),
	).Order(goqu.I("l.added_at").Desc(), goqu.I("l.id").Asc())
	if q.Limit > 0 {
		page = page.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		page = page.Offset(uint(q.Offset))
	}
	query, args, err := page.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build library list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list library entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *PostgresRepo) Tally(ctx context.Context, userID string) (Tally, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const tallySQL = `
		SELECT status, count(*),
			coalesce(sum(rating) FILTER (WHERE rating > 0), 0),
			count(*) FILTER (WHERE rating > 0)
		FROM library_entries
		WHERE user_id = $1
		GROUP BY status`

	rows, err := r.db.Query(ctx, tallySQL, userID)
	if err != nil {
		return Tally{}, fmt.Errorf("tally library: %w", err)
	}
	defer rows.Close()

	t := Tally{ByStatus: map[Status]int{}}
	for rows.Next() {
		var (
			status            Status
			count, sum, rated int
		)
		if err := rows.Scan(&status, &count, &sum, &rated); err != nil {
			return Tally{}, err
		}
		t.ByStatus[status] = count
		t.RatingSum += sum
		t.Rated += rated
	}
	return t, rows.Err()
}
