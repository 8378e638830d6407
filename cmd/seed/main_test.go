package main

import (
	"context"
	"math/rand/v2"
	"testing"

	"bookshelf/internal/catalog"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISBN13CheckDigit(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "9790000000018"},
		{42, "9790000000421"},
	}
	for _, tt := range tests {
		got := isbn13(tt.n)
		assert.Equal(t, tt.want, got)
		_, ok := catalog.NormalizeISBN(got)
		assert.True(t, ok)
	}
}

func TestSeederRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := seeder{
		books:  store.Catalog(),
		shelf:  newShelf(store.Library(), store.Catalog(), store.Custody()),
		rnd:    rand.New(rand.NewPCG(7, 7)),
		logger: logging.Discard(),
	}

	require.NoError(t, s.run(ctx, 30, "demo", 12))

	stats, err := s.shelf.library.Stats(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Total)
	sum := 0
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, 12, sum)

	books, total, err := s.shelf.library.List(ctx, "demo", library.ListQuery{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	for _, v := range books {
		assert.Equal(t, "979", v.Book.ISBN[:3])
	}
}
