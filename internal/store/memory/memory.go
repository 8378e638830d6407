// Package memory keeps catalog entries, library entries and custody records
// in process. It applies the same version checks as the Postgres repos and
// backs STORAGE=memory and the service tests.
package memory

import (
	"sync"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"
)

type key struct {
	userID    string
	catalogID string
}

type Store struct {
	mu sync.Mutex

	books  map[string]catalog.Entry
	isbns  map[string]string
	idents map[string]string // alias -> id of the first entry that claimed it
	raw    map[string][]byte
	shelf  map[key]library.Entry
	record map[key]custody.Record
	now    func() time.Time
}

func New() *Store {
	return &Store{
		books:  map[string]catalog.Entry{},
		isbns:  map[string]string{},
		idents: map[string]string{},
		raw:    map[string][]byte{},
		shelf:  map[key]library.Entry{},
		record: map[key]custody.Record{},
		now:    time.Now,
	}
}

// Catalog returns the store as a catalog.Repository.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// Library returns the store as a library.Repository.
func (s *Store) Library() *LibraryRepo { return &LibraryRepo{s: s} }

// Custody returns the store as a custody.Repository.
func (s *Store) Custody() *CustodyRepo { return &CustodyRepo{s: s} }

var (
	_ catalog.Repository = (*CatalogRepo)(nil)
	_ library.Repository = (*LibraryRepo)(nil)
	_ custody.Repository = (*CustodyRepo)(nil)
)
