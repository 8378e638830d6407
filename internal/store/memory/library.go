package memory

import (
	"context"
	"sort"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/custody"
	"bookshelf/internal/library"
)

type LibraryRepo struct {
	s *Store
}

func errNoEntry() error { return apperr.NotFound("Book is not in your library.") }

func (r *LibraryRepo) Create(_ context.Context, e library.Entry, rec custody.Record) (library.Entry, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := key{e.UserID, e.CatalogID}
	if existing, ok := r.s.shelf[k]; ok {
		return existing, false, nil
	}
	if _, ok := r.s.books[e.CatalogID]; !ok {
		return library.Entry{}, false, errNoBook()
	}

	e.Version = 1
	rec = rec.Clone()
	rec.Version = 1
	r.s.shelf[k] = e
	r.s.record[k] = rec
	return e, true, nil
}

func (r *LibraryRepo) Get(_ context.Context, userID, catalogID string) (library.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.shelf[key{userID, catalogID}]
	if !ok {
		return library.Entry{}, errNoEntry()
	}
	return e, nil
}

func (r *LibraryRepo) GetByID(_ context.Context, id string) (library.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.shelf {
		if e.ID == id {
			return e, nil
		}
	}
	return library.Entry{}, apperr.NotFound("Library entry not found.")
}

func (r *LibraryRepo) Update(_ context.Context, e library.Entry) (library.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := key{e.UserID, e.CatalogID}
	current, ok := r.s.shelf[k]
	if !ok {
		return library.Entry{}, errNoEntry()
	}
	if current.Version != e.Version {
		return library.Entry{}, apperr.Conflict("Library entry was changed by another request, retry.")
	}
	e.Version++
	r.s.shelf[k] = e
	return e, nil
}

func (r *LibraryRepo) Delete(_ context.Context, userID, catalogID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := key{userID, catalogID}
	if _, ok := r.s.shelf[k]; !ok {
		return errNoEntry()
	}
	delete(r.s.shelf, k)
	delete(r.s.record, k)
	return nil
}

func (r *LibraryRepo) List(_ context.Context, userID string, q library.ListQuery) ([]library.Entry, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(q.Q)
	var matched []library.Entry
	for k, e := range r.s.shelf {
		if k.userID != userID {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if needle != "" {
			b := r.s.books[e.CatalogID]
			haystack := strings.ToLower(b.Title + " " + strings.Join(b.Authors, " "))
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AddedAt.Equal(matched[j].AddedAt) {
			return matched[i].AddedAt.After(matched[j].AddedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	page := make([]library.Entry, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (r *LibraryRepo) Tally(_ context.Context, userID string) (library.Tally, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := library.Tally{ByStatus: map[library.Status]int{}}
	for k, e := range r.s.shelf {
		if k.userID != userID {
			continue
		}
		t.ByStatus[e.Status]++
		if e.Rating > 0 {
			t.Rated++
			t.RatingSum += e.Rating
		}
	}
	return t, nil
}
