package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/openlibrary"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mock_catalog.go -package=catalog

type Repository interface {
	GetByID(ctx context.Context, id string) (Entry, error)
	GetByISBN(ctx context.Context, isbn string) (Entry, error)
	// GetByIdentifier finds the entry that lists ident among its aliases. When
	// several do, the oldest wins.
	GetByIdentifier(ctx context.Context, ident string) (Entry, error)
	// Create inserts e unless its ISBN is already known, in which case the
	// aliases of e are merged into the stored entry. It returns the stored
	// entry and whether this call created it.
	Create(ctx context.Context, e Entry, rawJSON []byte) (Entry, bool, error)
	// FillMissing copies patch into the empty optional fields of entry id.
	FillMissing(ctx context.Context, id string, patch Entry) (Entry, error)
}

type VolumeSource interface {
	GetVolume(ctx context.Context, id string) (*googlebooks.Volume, error)
	FindByISBN(ctx context.Context, isbn string) (*googlebooks.Volume, error)
	SearchVolumes(ctx context.Context, q string, startIndex, maxResults int) (*googlebooks.SearchResponse, error)
}

type BackfillSource interface {
	GetBooksByISBN(ctx context.Context, isbns []string) (map[string]openlibrary.BookDetails, error)
}

type Service struct {
	repo     Repository
	volumes  VolumeSource
	backfill BackfillSource
	logger   logging.Logger
}

type Option func(*Service)

func WithBackfill(b BackfillSource) Option {
	return func(s *Service) { s.backfill = b }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, volumes VolumeSource, opts ...Option) *Service {
	s := &Service{repo: repo, volumes: volumes, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup finds a stored entry by catalog ID, ISBN (10 or 13 digits) or any
// provider volume ID it was resolved through. It never calls the provider.
func (s *Service) Lookup(ctx context.Context, ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Entry{}, apperr.InvalidInput("Book identifier is required.")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return s.repo.GetByID(ctx, id.String())
	}

	idents := []string{ref}
	if isbn, ok := NormalizeISBN(ref); ok {
		e, err := s.repo.GetByISBN(ctx, isbn)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return e, err
		}
		idents = ISBNForms(isbn)
	}
	for _, ident := range idents {
		e, err := s.repo.GetByIdentifier(ctx, ident)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return e, err
		}
	}
	return Entry{}, apperr.NotFound("Book not found in catalog.")
}

// Resolve returns the stored entry for ref, creating it from provider
// metadata the first time the book is seen.
func (s *Service) Resolve(ctx context.Context, ref string) (Entry, error) {
	existing, err := s.Lookup(ctx, ref)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Entry{}, err
	}

	ref = strings.TrimSpace(ref)
	var vol *googlebooks.Volume
	if isbn, ok := NormalizeISBN(ref); ok {
		vol, err = s.volumes.FindByISBN(ctx, isbn)
	} else {
		vol, err = s.volumes.GetVolume(ctx, ref)
	}
	if errors.Is(err, googlebooks.ErrNotFound) {
		return Entry{}, apperr.Wrap(apperr.KindNotFound, err, "Book not found.")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("fetch volume %s: %w", ref, err)
	}

	isbn, ok := PreferredISBN(vol.VolumeInfo.IndustryIdentifiers)
	if !ok {
		return Entry{}, apperr.InvalidInput("No ISBN available for this book.")
	}

	e := fromVolume(vol, isbn)
	e.ID = uuid.NewString()
	stored, created, err := s.repo.Create(ctx, e, vol.Raw)
	if err != nil {
		return Entry{}, fmt.Errorf("create catalog entry: %w", err)
	}
	if created {
		s.logger.Info("catalog entry created", "isbn", stored.ISBN, "external_id", stored.ExternalID)
		stored = s.fill(ctx, stored)
	}
	return stored, nil
}

// fill backfills optional fields from Open Library. Failures only cost
// metadata, so they are logged and the unfilled entry is returned.
func (s *Service) fill(ctx context.Context, e Entry) Entry {
	if s.backfill == nil || !e.MissingOptional() {
		return e
	}
	details, err := s.backfill.GetBooksByISBN(ctx, []string{e.ISBN})
	if err != nil {
		s.logger.Warn("catalog backfill failed", "isbn", e.ISBN, "error", err)
		return e
	}
	d, ok := details["ISBN:"+e.ISBN]
	if !ok {
		return e
	}

	patch := patchFromOpenLibrary(d)
	if sameOptional(e, e.Backfilled(patch)) {
		return e
	}
	filled, err := s.repo.FillMissing(ctx, e.ID, patch)
	if err != nil {
		s.logger.Warn("catalog backfill write failed", "isbn", e.ISBN, "error", err)
		return e
	}
	return filled
}

func patchFromOpenLibrary(d openlibrary.BookDetails) Entry {
	var p Entry
	for _, a := range d.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	for _, sub := range d.Subjects {
		p.Categories = append(p.Categories, sub.Name)
	}
	if len(d.Publishers) > 0 {
		p.Publisher = d.Publishers[0].Name
	}
	p.PublishedDate = d.PublishDate
	p.PageCount = d.NumberOfPages
	p.CoverURL = d.Cover.Large
	if p.CoverURL == "" {
		p.CoverURL = d.Cover.Medium
	}
	p.Description = d.Notes
	return p
}

func sameOptional(a, b Entry) bool {
	return a.Description == b.Description && len(a.Categories) == len(b.Categories) &&
		a.PageCount == b.PageCount && a.PublishedDate == b.PublishedDate &&
		a.Publisher == b.Publisher && a.CoverURL == b.CoverURL &&
		a.Language == b.Language && len(a.Authors) == len(b.Authors)
}

// Search passes a free text query through to the provider.
func (s *Service) Search(ctx context.Context, q string, page, pageSize int) ([]SearchResult, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, apperr.InvalidInput("Search query is required.")
	}
	res, err := s.volumes.SearchVolumes(ctx, q, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search volumes: %w", err)
	}
	out := make([]SearchResult, 0, len(res.Items))
	for _, v := range res.Items {
		out = append(out, searchResultFromVolume(v))
	}
	return out, res.TotalItems, nil
}
