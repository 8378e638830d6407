package memory

import (
	"context"
	"slices"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
)

type CatalogRepo struct {
	s *Store
}

func errNoBook() error { return apperr.NotFound("Book not found in catalog.") }

func cloneBook(e catalog.Entry) catalog.Entry {
	e.Authors = slices.Clone(e.Authors)
	e.Categories = slices.Clone(e.Categories)
	e.Identifiers = slices.Clone(e.Identifiers)
	return e
}

func (r *CatalogRepo) GetByID(_ context.Context, id string) (catalog.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.books[strings.ToLower(id)]
	if !ok {
		return catalog.Entry{}, errNoBook()
	}
	return cloneBook(e), nil
}

func (r *CatalogRepo) GetByISBN(_ context.Context, isbn string) (catalog.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.isbns[isbn]
	if !ok {
		return catalog.Entry{}, errNoBook()
	}
	return cloneBook(r.s.books[id]), nil
}

func (r *CatalogRepo) GetByIdentifier(_ context.Context, ident string) (catalog.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.idents[ident]
	if !ok {
		return catalog.Entry{}, errNoBook()
	}
	return cloneBook(r.s.books[id]), nil
}

func (r *CatalogRepo) Create(_ context.Context, e catalog.Entry, rawJSON []byte) (catalog.Entry, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	aliases := e.Aliases()
	if id, ok := r.s.isbns[e.ISBN]; ok {
		stored := r.s.books[id]
		merged := append(slices.Clone(stored.Identifiers), aliases...)
		slices.Sort(merged)
		stored.Identifiers = slices.Compact(merged)
		r.s.books[id] = stored
		r.index(id, aliases)
		return cloneBook(stored), false, nil
	}
	now := r.s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	e.Identifiers = aliases
	e = cloneBook(e)
	r.s.books[e.ID] = e
	r.s.isbns[e.ISBN] = e.ID
	r.index(e.ID, aliases)
	if len(rawJSON) > 0 {
		r.s.raw[e.ID] = slices.Clone(rawJSON)
	}
	return cloneBook(e), true, nil
}

// index claims every unclaimed alias for id. Callers hold the lock.
func (r *CatalogRepo) index(id string, aliases []string) {
	for _, a := range aliases {
		if _, taken := r.s.idents[a]; !taken {
			r.s.idents[a] = id
		}
	}
}

func (r *CatalogRepo) FillMissing(_ context.Context, id string, patch catalog.Entry) (catalog.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.books[id]
	if !ok {
		return catalog.Entry{}, errNoBook()
	}
	e = cloneBook(e.Backfilled(patch))
	e.UpdatedAt = r.s.now()
	r.s.books[id] = e
	return cloneBook(e), nil
}

// Raw returns the provider JSON stored with entry id.
func (r *CatalogRepo) Raw(id string) []byte {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.raw[id])
}
