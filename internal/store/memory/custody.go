package memory

import (
	"context"
	"sort"

	"bookshelf/internal/apperr"
	"bookshelf/internal/custody"
)

type CustodyRepo struct {
	s *Store
}

func (r *CustodyRepo) Get(_ context.Context, userID, catalogID string) (custody.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.record[key{userID, catalogID}]
	if !ok {
		return custody.Record{}, errNoEntry()
	}
	return rec.Clone(), nil
}

func (r *CustodyRepo) Update(_ context.Context, rec custody.Record) (custody.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := key{rec.UserID, rec.CatalogID}
	current, ok := r.s.record[k]
	if !ok {
		return custody.Record{}, errNoEntry()
	}
	if current.Version != rec.Version {
		return custody.Record{}, apperr.Conflict("Custody record was changed by another request, retry.")
	}
	rec = rec.Clone()
	rec.Version++
	r.s.record[k] = rec
	return rec.Clone(), nil
}

func (r *CustodyRepo) ListActive(_ context.Context, userID string) ([]custody.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []custody.Record
	for k, rec := range r.s.record {
		if k.userID == userID && (rec.Lent != nil || rec.Borrowed != nil) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
