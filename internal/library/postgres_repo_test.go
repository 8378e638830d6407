package library_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"
	"bookshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pgHarness struct {
	books   *catalog.Service
	entries *library.PostgresRepo
	records *custody.PostgresRepo
	library *library.Service
	custody *custody.Service
}

func newPostgresHarness(t *testing.T) *pgHarness {
	t.Helper()
	pool := testutil.PostgresPool(t)

	volumes := newVolumes()
	clock := func() time.Time { return fixedNow }
	books := catalog.NewService(catalog.NewPostgresRepo(pool, 3*time.Second), volumes)
	entries := library.NewPostgresRepo(pool, 3*time.Second)
	records := custody.NewPostgresRepo(pool, 3*time.Second)
	custodySvc := custody.NewService(records, books, custody.WithClock(clock))
	return &pgHarness{
		books:   books,
		entries: entries,
		records: records,
		library: library.NewService(entries, books, records, custodySvc, library.WithClock(clock)),
		custody: custodySvc,
	}
}

func TestPostgres_ScenarioAndCascade(t *testing.T) {
	h := newPostgresHarness(t)
	ctx := context.Background()

	first, created, err := h.library.AddEntry(ctx, alice, effectiveJava, "reading")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), first.Entry.Version)
	assert.Equal(t, custody.StateOnShelf, first.CustodyState)

	again, created, err := h.library.AddEntry(ctx, alice, effectiveJava, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)
	assert.Equal(t, library.StatusReading, again.Entry.Status)

	entry, err := h.library.SetProgress(ctx, alice, effectiveJava, 100)
	require.NoError(t, err)
	assert.Equal(t, library.StatusRead, entry.Status)
	assert.Equal(t, int64(2), entry.Version)

	rec, err := h.custody.Lend(ctx, alice, effectiveJava, custody.RelationInput{Person: "Bob", Since: "2024-05-01", Due: "2024-05-10"})
	require.NoError(t, err)
	assert.Equal(t, custody.StateLentOut, rec.State())

	overdue, err := h.custody.Overdue(ctx, alice)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Effective Java", overdue[0].Title)
	assert.Equal(t, 10, overdue[0].DaysOverdue)

	rec, err = h.custody.ReturnLent(ctx, alice, effectiveJava)
	require.NoError(t, err)
	assert.True(t, rec.OnShelf)
	require.Len(t, rec.History, 2)
	assert.Equal(t, custody.ActionReturned, rec.History[1].Action)

	require.NoError(t, h.library.RemoveEntry(ctx, alice, effectiveJava))
	_, err = h.records.Get(ctx, alice, first.Entry.CatalogID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, h.library.RemoveEntry(ctx, alice, effectiveJava), apperr.ErrNotFound)
}

func TestPostgres_CatalogIDFormsAndAliases(t *testing.T) {
	h := newPostgresHarness(t)
	ctx := context.Background()

	view, _, err := h.library.AddEntry(ctx, alice, "0134685997", "")
	require.NoError(t, err)
	id := view.Book.ID

	for _, ref := range []string{strings.ToUpper(id), "{" + id + "}", "urn:uuid:" + id, "0134685997", "9780134685991", "vol-ej"} {
		t.Run(ref, func(t *testing.T) {
			got, err := h.library.Get(ctx, alice, ref)
			require.NoError(t, err)
			assert.Equal(t, view.Entry.ID, got.Entry.ID)
		})
	}

	again, created, err := h.library.AddEntry(ctx, alice, "vol-ej-ebook", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, view.Entry.ID, again.Entry.ID)
	assert.Contains(t, again.Book.Identifiers, "vol-ej-ebook")

	book, err := h.books.Lookup(ctx, "vol-ej-ebook")
	require.NoError(t, err)
	assert.Equal(t, id, book.ID)

	_, err = h.books.Lookup(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostgres_StaleVersionIsConflict(t *testing.T) {
	h := newPostgresHarness(t)
	ctx := context.Background()

	view, _, err := h.library.AddEntry(ctx, alice, clrs, "")
	require.NoError(t, err)

	stale := view.Entry
	_, err = h.entries.Update(ctx, stale.WithStatus(library.StatusRead))
	require.NoError(t, err)
	_, err = h.entries.Update(ctx, stale.WithStatus(library.StatusDNF))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	rec, err := h.records.Get(ctx, alice, view.Entry.CatalogID)
	require.NoError(t, err)
	_, err = h.records.Update(ctx, rec)
	require.NoError(t, err)
	_, err = h.records.Update(ctx, rec)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPostgres_ConcurrentLendHasOneWinner(t *testing.T) {
	h := newPostgresHarness(t)
	ctx := context.Background()
	_, _, err := h.library.AddEntry(ctx, alice, patterns, "")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.custody.Lend(ctx, alice, patterns, custody.RelationInput{Person: "Carol"})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		kind := apperr.KindOf(err)
		assert.Contains(t, []apperr.Kind{apperr.KindConflict, apperr.KindInvalidTransition}, kind)
	}
	assert.Equal(t, 1, wins)
}

func TestPostgres_ListSearchAndStats(t *testing.T) {
	h := newPostgresHarness(t)
	ctx := context.Background()

	for _, ref := range []string{effectiveJava, clrs, patterns} {
		_, _, err := h.library.AddEntry(ctx, alice, ref, "")
		require.NoError(t, err)
	}
	_, _, err := h.library.AddEntry(ctx, bob, clrs, "")
	require.NoError(t, err)
	_, err = h.library.SetRating(ctx, alice, clrs, 4)
	require.NoError(t, err)
	_, err = h.library.SetStatus(ctx, alice, patterns, "dnf")
	require.NoError(t, err)

	tests := []struct {
		name  string
		query library.ListQuery
		want  int
	}{
		{"all", library.ListQuery{Limit: 10}, 3},
		{"title match is case insensitive", library.ListQuery{Q: "ALGORITHMS", Limit: 10}, 1},
		{"author match", library.ListQuery{Q: "gamma", Limit: 10}, 1},
		{"like metacharacters are literal", library.ListQuery{Q: "%", Limit: 10}, 0},
		{"status filter", library.ListQuery{Status: library.StatusDNF, Limit: 10}, 1},
		{"paged", library.ListQuery{Limit: 2, Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, total, err := h.library.List(ctx, alice, tt.query)
			require.NoError(t, err)
			assert.Len(t, views, tt.want)
			if tt.query.Offset == 0 {
				assert.Equal(t, tt.want, total)
			}
		})
	}

	stats, err := h.library.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[library.StatusUnread])
	assert.Equal(t, 1, stats.ByStatus[library.StatusDNF])
	assert.Equal(t, 1, stats.Rated)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.001)
}
