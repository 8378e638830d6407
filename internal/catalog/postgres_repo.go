package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
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

const entryColumns = `id::text, external_id, isbn, identifiers, title, authors, description, categories, page_count,
	published_date, publisher, cover_url, language, info_link, preview_link, canonical_link, created_at, updated_at`

func scanEntry(row pgx.Row, extra ...any) (Entry, error) {
	var e Entry
	dest := []any{
		&e.ID, &e.ExternalID, &e.ISBN, &e.Identifiers, &e.Title, &e.Authors, &e.Description, &e.Categories, &e.PageCount,
		&e.PublishedDate, &e.Publisher, &e.CoverURL, &e.Language, &e.Links.Info, &e.Links.Preview,
		&e.Links.Canonical, &e.CreatedAt, &e.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return e, err
}

// getBy returns the oldest entry matching cond, which binds its value as $1.
func (r *PostgresRepo) getBy(ctx context.Context, cond, value string) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM catalog_entries WHERE %s ORDER BY created_at, id LIMIT 1", entryColumns, cond)
	e, err := scanEntry(r.db.QueryRow(ctx, query, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.NotFound("Book not found in catalog.")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get catalog entry where %s: %w", cond, err)
	}
	return e, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Entry{}, apperr.NotFound("Book not found in catalog.")
	}
	return r.getBy(ctx, "id = $1::uuid", id)
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Entry, error) {
	return r.getBy(ctx, "isbn = $1", isbn)
}

func (r *PostgresRepo) GetByIdentifier(ctx context.Context, ident string) (Entry, error) {
	return r.getBy(ctx, "identifiers @> ARRAY[$1::text]", ident)
}

func (r *PostgresRepo) Create(ctx context.Context, e Entry, rawJSON []byte) (Entry, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var source any
	if len(rawJSON) > 0 && jsoniter.Valid(rawJSON) {
		source = string(rawJSON)
	}

	// xmax is zero only on a freshly inserted row.
	const upsertSQL = `
		INSERT INTO catalog_entries (
			id, external_id, isbn, identifiers, title, authors, description, categories, page_count,
			published_date, publisher, cover_url, language, info_link, preview_link, canonical_link, source_json
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17::jsonb)
		ON CONFLICT (isbn) DO UPDATE SET identifiers = ARRAY(
			SELECT DISTINCT alias FROM unnest(catalog_entries.identifiers || EXCLUDED.identifiers) AS alias ORDER BY alias
		)
		RETURNING ` + entryColumns + `, (xmax = 0)`

	var created bool
	stored, err := scanEntry(r.db.QueryRow(ctx, upsertSQL,
		e.ID, e.ExternalID, e.ISBN, nonNil(e.Aliases()), e.Title, nonNil(e.Authors), e.Description, nonNil(e.Categories),
		e.PageCount, e.PublishedDate, e.Publisher, e.CoverURL, e.Language, e.Links.Info, e.Links.Preview,
		e.Links.Canonical, source,
	), &created)
	if err != nil {
		return Entry{}, false, fmt.Errorf("upsert catalog entry: %w", err)
	}
	return stored, created, nil
}

func (r *PostgresRepo) FillMissing(ctx context.Context, id string, p Entry) (Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Entry{}, apperr.NotFound("Book not found in catalog.")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const fillSQL = `
		UPDATE catalog_entries SET
			authors        = CASE WHEN cardinality(authors) = 0 THEN $2 ELSE authors END,
			description    = CASE WHEN description = '' THEN $3 ELSE description END,
			categories     = CASE WHEN cardinality(categories) = 0 THEN $4 ELSE categories END,
			page_count     = CASE WHEN page_count = 0 THEN $5 ELSE page_count END,
			published_date = CASE WHEN published_date = '' THEN $6 ELSE published_date END,
			publisher      = CASE WHEN publisher = '' THEN $7 ELSE publisher END,
			cover_url      = CASE WHEN cover_url = '' THEN $8 ELSE cover_url END,
			language       = CASE WHEN language = '' THEN $9 ELSE language END,
			updated_at     = now()
		WHERE id = $1::uuid
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRow(ctx, fillSQL,
		id, nonNil(p.Authors), p.Description, nonNil(p.Categories), p.PageCount,
		p.PublishedDate, p.Publisher, p.CoverURL, p.Language,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.NotFound("Book not found in catalog.")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("backfill catalog entry: %w", err)
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
