package memory

import (
	"context"
	"testing"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBook(t *testing.T, s *Store, id, isbn, title string, authors ...string) catalog.Entry {
	t.Helper()
	e, created, err := s.Catalog().Create(context.Background(), catalog.Entry{
		ID: id, ExternalID: "vol-" + id, ISBN: isbn, Title: title, Authors: authors,
	}, []byte(`{"id":"vol-`+id+`"}`))
	require.NoError(t, err)
	require.True(t, created)
	return e
}

func addEntry(t *testing.T, s *Store, userID, catalogID string, status library.Status, at time.Time) library.Entry {
	t.Helper()
	e, created, err := s.Library().Create(context.Background(), library.Entry{
		ID: userID + "-" + catalogID, UserID: userID, CatalogID: catalogID, Status: status, AddedAt: at,
	}, custody.New(userID, catalogID, at))
	require.NoError(t, err)
	require.True(t, created)
	return e
}

func TestCatalogCreateIsIdempotentOnISBN(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := seedBook(t, s, "b1", "9780134685991", "Effective Java")

	again, created, err := s.Catalog().Create(ctx, catalog.Entry{ID: "b2", ISBN: "9780134685991", Title: "dup"}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Effective Java", again.Title)

	byExt, err := s.Catalog().GetByIdentifier(ctx, "vol-b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", byExt.ID)
	assert.JSONEq(t, `{"id":"vol-b1"}`, string(s.Catalog().Raw("b1")))

	_, err = s.Catalog().GetByID(ctx, "b2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogCreateMergesAliases(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedBook(t, s, "b1", "9780134685991", "Effective Java")

	merged, created, err := s.Catalog().Create(ctx, catalog.Entry{
		ID: "b2", ExternalID: "vol-ebook", ISBN: "9780134685991", Identifiers: []string{"vol-ebook", "0-13-468599-7"},
	}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"0134685997", "9780134685991", "vol-b1", "vol-ebook"}, merged.Identifiers)

	for _, ident := range []string{"vol-b1", "vol-ebook", "0134685997", "9780134685991"} {
		got, err := s.Catalog().GetByIdentifier(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, "b1", got.ID, ident)
	}
}

func TestCatalogSharedAliasResolvesToOldest(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, e := range []catalog.Entry{
		{ID: "b1", ExternalID: "vol-1", ISBN: "9780134685991", Identifiers: []string{"OCLC:1"}},
		{ID: "b2", ExternalID: "vol-2", ISBN: "9780262033848", Identifiers: []string{"OCLC:1"}},
	} {
		_, _, err := s.Catalog().Create(ctx, e, nil)
		require.NoError(t, err)
	}

	for range 20 {
		got, err := s.Catalog().GetByIdentifier(ctx, "OCLC:1")
		require.NoError(t, err)
		assert.Equal(t, "b1", got.ID)
	}
	_, err := s.Catalog().GetByIdentifier(ctx, "vol-3")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogFillMissingKeepsExistingFields(t *testing.T) {
	s := New()
	seedBook(t, s, "b1", "9780134685991", "Effective Java", "Joshua Bloch")

	got, err := s.Catalog().FillMissing(context.Background(), "b1", catalog.Entry{
		Authors:   []string{"Someone Else"},
		Publisher: "Addison-Wesley",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Joshua Bloch"}, got.Authors)
	assert.Equal(t, "Addison-Wesley", got.Publisher)
}

func TestLibraryCreateRequiresCatalogEntry(t *testing.T) {
	s := New()
	_, _, err := s.Library().Create(context.Background(), library.Entry{UserID: "u1", CatalogID: "missing"},
		custody.New("u1", "missing", time.Now()))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLibraryUpdateChecksVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedBook(t, s, "b1", "9780134685991", "Effective Java")
	e := addEntry(t, s, "u1", "b1", library.StatusUnread, time.Now())
	require.Equal(t, int64(1), e.Version)

	e.Status = library.StatusReading
	saved, err := s.Library().Update(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	_, err = s.Library().Update(ctx, e)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	e.UserID = "someone-else"
	_, err = s.Library().Update(ctx, e)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLibraryDeleteRemovesCustodyRecord(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedBook(t, s, "b1", "9780134685991", "Effective Java")
	addEntry(t, s, "u1", "b1", library.StatusUnread, time.Now())

	require.NoError(t, s.Library().Delete(ctx, "u1", "b1"))

	_, err := s.Library().Get(ctx, "u1", "b1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.Custody().Get(ctx, "u1", "b1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.Library().Delete(ctx, "u1", "b1"), apperr.ErrNotFound)
}

func TestLibraryListFiltersAndPages(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBook(t, s, "b1", "9780134685991", "Effective Java", "Joshua Bloch")
	seedBook(t, s, "b2", "9780262033848", "Introduction to Algorithms", "Thomas Cormen")
	seedBook(t, s, "b3", "9780201633610", "Design Patterns", "Erich Gamma")
	addEntry(t, s, "u1", "b1", library.StatusRead, base)
	addEntry(t, s, "u1", "b2", library.StatusUnread, base.Add(time.Hour))
	addEntry(t, s, "u1", "b3", library.StatusUnread, base.Add(2*time.Hour))
	addEntry(t, s, "u2", "b1", library.StatusUnread, base)

	tests := []struct {
		name    string
		q       library.ListQuery
		wantIDs []string
		total   int
	}{
		{"all newest first", library.ListQuery{}, []string{"b3", "b2", "b1"}, 3},
		{"by status", library.ListQuery{Status: library.StatusUnread}, []string{"b3", "b2"}, 2},
		{"by author", library.ListQuery{Q: "bloch"}, []string{"b1"}, 1},
		{"by title", library.ListQuery{Q: "ALGO"}, []string{"b2"}, 1},
		{"paged", library.ListQuery{Limit: 1, Offset: 1}, []string{"b2"}, 3},
		{"offset past end", library.ListQuery{Limit: 5, Offset: 10}, []string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.Library().List(ctx, "u1", tt.q)
			require.NoError(t, err)
			ids := []string{}
			for _, e := range got {
				ids = append(ids, e.CatalogID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestLibraryTally(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedBook(t, s, "b1", "9780134685991", "Effective Java")
	seedBook(t, s, "b2", "9780262033848", "Introduction to Algorithms")
	e1 := addEntry(t, s, "u1", "b1", library.StatusRead, time.Now())
	addEntry(t, s, "u1", "b2", library.StatusUnread, time.Now())

	e1.Rating = 4
	_, err := s.Library().Update(ctx, e1)
	require.NoError(t, err)

	tally, err := s.Library().Tally(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.ByStatus[library.StatusRead])
	assert.Equal(t, 1, tally.ByStatus[library.StatusUnread])
	assert.Equal(t, 1, tally.Rated)
	assert.Equal(t, 4, tally.RatingSum)
}

func TestCustodyUpdateChecksVersionAndCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedBook(t, s, "b1", "9780134685991", "Effective Java")
	addEntry(t, s, "u1", "b1", library.StatusUnread, time.Now())

	rec, err := s.Custody().Get(ctx, "u1", "b1")
	require.NoError(t, err)
	next, err := custody.Lend(rec, "Alice", time.Now(), nil)
	require.NoError(t, err)

	saved, err := s.Custody().Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	_, err = s.Custody().Update(ctx, next)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	saved.History[0].Person = "mutated"
	stored, err := s.Custody().Get(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.History[0].Person)

	active, err := s.Custody().ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
