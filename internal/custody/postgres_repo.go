package custody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/apperr"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

var historyJSON = jsoniter.ConfigFastest

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

const recordColumns = `user_id, catalog_id::text, on_shelf, owned,
	lent_person, lent_since, lent_due, borrowed_person, borrowed_since, borrowed_due,
	history, updated_at, version`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec                        Record
		lentPerson, borrowedPerson *string
		lentSince, lentDue         *time.Time
		borrowedSince, borrowedDue *time.Time
		history                    []byte
	)
	if err := row.Scan(
		&rec.UserID, &rec.CatalogID, &rec.OnShelf, &rec.Owned,
		&lentPerson, &lentSince, &lentDue, &borrowedPerson, &borrowedSince, &borrowedDue,
		&history, &rec.UpdatedAt, &rec.Version,
	); err != nil {
		return Record{}, err
	}

	rec.Lent = toRelation(lentPerson, lentSince, lentDue)
	rec.Borrowed = toRelation(borrowedPerson, borrowedSince, borrowedDue)
	rec.History = []Event{}
	if len(history) > 0 {
		if err := historyJSON.Unmarshal(history, &rec.History); err != nil {
			return Record{}, fmt.Errorf("decode custody history: %w", err)
		}
	}
	return rec, nil
}

func toRelation(person *string, since, due *time.Time) *Relation {
	if person == nil || since == nil {
		return nil
	}
	return &Relation{Person: *person, Since: *since, Due: due}
}

func fromRelation(rel *Relation) (person *string, since, due *time.Time) {
	if rel == nil {
		return nil, nil, nil
	}
	return &rel.Person, &rel.Since, rel.Due
}

func encodeHistory(events []Event) (string, error) {
	if events == nil {
		events = []Event{}
	}
	b, err := historyJSON.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("encode custody history: %w", err)
	}
	return string(b), nil
}

// InsertTx writes a new record inside tx. The library repository calls it so
// an entry and its record are created in the same transaction.
func InsertTx(ctx context.Context, tx pgx.Tx, rec Record) error {
	history, err := encodeHistory(rec.History)
	if err != nil {
		return err
	}
	lentPerson, lentSince, lentDue := fromRelation(rec.Lent)
	borrowedPerson, borrowedSince, borrowedDue := fromRelation(rec.Borrowed)

	const insertSQL = `
		INSERT INTO custody_records (
			user_id, catalog_id, on_shelf, owned,
			lent_person, lent_since, lent_due, borrowed_person, borrowed_since, borrowed_due,
			history, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, 1)`

	_, err = tx.Exec(ctx, insertSQL,
		rec.UserID, rec.CatalogID, rec.OnShelf, rec.Owned,
		lentPerson, lentSince, lentDue, borrowedPerson, borrowedSince, borrowedDue,
		history, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert custody record: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, userID, catalogID string) (Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM custody_records WHERE user_id = $1 AND catalog_id = $2`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, userID, catalogID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, apperr.NotFound("Book is not in your library.")
	}
	if err != nil {
		return Record{}, fmt.Errorf("get custody record: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepo) Update(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	history, err := encodeHistory(rec.History)
	if err != nil {
		return Record{}, err
	}
	lentPerson, lentSince, lentDue := fromRelation(rec.Lent)
	borrowedPerson, borrowedSince, borrowedDue := fromRelation(rec.Borrowed)

	const updateSQL = `
		UPDATE custody_records SET
			on_shelf = $3,
			owned = $4,
			lent_person = $5,
			lent_since = $6,
			lent_due = $7,
			borrowed_person = $8,
			borrowed_since = $9,
			borrowed_due = $10,
			history = $11::jsonb,
			updated_at = $12,
			version = version + 1
		WHERE user_id = $1 AND catalog_id = $2 AND version = $13
		RETURNING version`

	var version int64
	err = r.db.QueryRow(ctx, updateSQL,
		rec.UserID, rec.CatalogID, rec.OnShelf, rec.Owned,
		lentPerson, lentSince, lentDue, borrowedPerson, borrowedSince, borrowedDue,
		history, rec.UpdatedAt, rec.Version,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, r.missOrConflict(ctx, rec.UserID, rec.CatalogID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("update custody record: %w", err)
	}

	rec.Version = version
	return rec, nil
}

func (r *PostgresRepo) missOrConflict(ctx context.Context, userID, catalogID string) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM custody_records WHERE user_id = $1 AND catalog_id = $2)`,
		userID, catalogID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check custody record: %w", err)
	}
	if !exists {
		return apperr.NotFound("Book is not in your library.")
	}
	return apperr.Conflict("Custody record was changed by another request, retry.")
}

func (r *PostgresRepo) ListActive(ctx context.Context, userID string) ([]Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := goqu.Dialect("postgres").
		From("custody_records").
		Select(goqu.L(recordColumns)).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.Or(
				goqu.C("lent_person").IsNotNull(),
				goqu.C("borrowed_person").IsNotNull(),
			),
		).
		Order(goqu.C("updated_at").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build active custody query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active custody: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
