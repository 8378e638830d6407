package library

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/custody"
	"bookshelf/internal/logging"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts e and its custody record in one transaction. When the
	// user already has the book, the stored entry is returned with created=false.
	Create(ctx context.Context, e Entry, rec custody.Record) (Entry, bool, error)
	Get(ctx context.Context, userID, catalogID string) (Entry, error)
	GetByID(ctx context.Context, id string) (Entry, error)
	// Update persists e if the stored version equals e.Version. A stale
	// version is a Conflict.
	Update(ctx context.Context, e Entry) (Entry, error)
	// Delete removes the entry and its custody record in one transaction.
	Delete(ctx context.Context, userID, catalogID string) error
	List(ctx context.Context, userID string, q ListQuery) ([]Entry, int, error)
	Tally(ctx context.Context, userID string) (Tally, error)
}

type Books interface {
	Resolve(ctx context.Context, ref string) (catalog.Entry, error)
	Lookup(ctx context.Context, ref string) (catalog.Entry, error)
}

type CustodyReader interface {
	Get(ctx context.Context, userID, catalogID string) (custody.Record, error)
}

type CustodySummarizer interface {
	Summary(ctx context.Context, userID string) (custody.Summary, error)
}

type Service struct {
	repo    Repository
	books   Books
	custody CustodyReader
	summary CustodySummarizer
	now     func() time.Time
	intn    func(n int) int
	logger  logging.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRandom replaces the source PickRandom draws from.
func WithRandom(intn func(n int) int) Option {
	return func(s *Service) { s.intn = intn }
}

func NewService(repo Repository, books Books, records CustodyReader, summary CustodySummarizer, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		books:   books,
		custody: records,
		summary: summary,
		now:     time.Now,
		intn:    rand.IntN,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireUser(userID string) error {
	if userID == "" {
		return apperr.Unauthorized("Missing user identity.")
	}
	return nil
}

// AddEntry puts the book identified by ref on the user's shelf, fetching
// its metadata on first use. Adding a book twice returns the existing entry
// with created=false.
func (s *Service) AddEntry(ctx context.Context, userID, ref, status string) (View, bool, error) {
	if err := requireUser(userID); err != nil {
		return View{}, false, err
	}
	st := StatusUnread
	if status != "" {
		var err error
		if st, err = ParseStatus(status); err != nil {
			return View{}, false, err
		}
	}

	book, err := s.books.Resolve(ctx, ref)
	if err != nil {
		return View{}, false, err
	}

	now := s.now()
	e := Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		CatalogID: book.ID,
		Status:    st,
		AddedAt:   now,
		UpdatedAt: now,
	}
	stored, created, err := s.repo.Create(ctx, e, custody.New(userID, book.ID, now))
	if err != nil {
		return View{}, false, err
	}
	if created {
		s.logger.Info("library entry added", "user_id", userID, "catalog_id", book.ID, "status", stored.Status)
	}

	v, err := s.view(ctx, stored, book)
	return v, created, err
}

func (s *Service) view(ctx context.Context, e Entry, book catalog.Entry) (View, error) {
	rec, err := s.custody.Get(ctx, e.UserID, e.CatalogID)
	if err != nil {
		return View{}, fmt.Errorf("load custody for %s: %w", e.CatalogID, err)
	}
	return View{Entry: e, Book: book, Custody: &rec, CustodyState: rec.State()}, nil
}

func (s *Service) Get(ctx context.Context, userID, ref string) (View, error) {
	e, book, err := s.entry(ctx, userID, ref)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, e, book)
}

// GetByID loads an entry by its own ID. Entries of other users are refused
// with Unauthorized rather than hidden.
func (s *Service) GetByID(ctx context.Context, userID, entryID string) (View, error) {
	if err := requireUser(userID); err != nil {
		return View{}, err
	}
	if _, err := uuid.Parse(entryID); err != nil {
		return View{}, apperr.NotFound("Library entry not found.")
	}
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return View{}, err
	}
	if e.UserID != userID {
		return View{}, apperr.Unauthorized("Library entry belongs to another user.")
	}
	book, err := s.books.Lookup(ctx, e.CatalogID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, e, book)
}

func (s *Service) entry(ctx context.Context, userID, ref string) (Entry, catalog.Entry, error) {
	if err := requireUser(userID); err != nil {
		return Entry{}, catalog.Entry{}, err
	}
	book, err := s.books.Lookup(ctx, ref)
	if err != nil {
		return Entry{}, catalog.Entry{}, err
	}
	e, err := s.repo.Get(ctx, userID, book.ID)
	if err != nil {
		return Entry{}, catalog.Entry{}, err
	}
	return e, book, nil
}

// mutate runs one read-modify-write cycle against the stored version.
func (s *Service) mutate(ctx context.Context, userID, ref, op string, change func(Entry) (Entry, error)) (Entry, error) {
	current, _, err := s.entry(ctx, userID, ref)
	if err != nil {
		return Entry{}, err
	}
	next, err := change(current)
	if err != nil {
		return Entry{}, err
	}
	next.UpdatedAt = s.now()

	saved, err := s.repo.Update(ctx, next)
	if err != nil {
		return Entry{}, err
	}
	s.logger.Debug("library entry updated", "op", op, "user_id", userID, "catalog_id", saved.CatalogID, "version", saved.Version)
	return saved, nil
}

func (s *Service) SetStatus(ctx context.Context, userID, ref, status string) (Entry, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Entry{}, err
	}
	return s.mutate(ctx, userID, ref, "set_status", func(e Entry) (Entry, error) {
		return e.WithStatus(st), nil
	})
}

func (s *Service) SetProgress(ctx context.Context, userID, ref string, progress int) (Entry, error) {
	if _, err := (Entry{}).WithProgress(progress); err != nil {
		return Entry{}, err
	}
	return s.mutate(ctx, userID, ref, "set_progress", func(e Entry) (Entry, error) {
		return e.WithProgress(progress)
	})
}

func (s *Service) SetRating(ctx context.Context, userID, ref string, rating int) (Entry, error) {
	if _, err := (Entry{}).WithRating(rating); err != nil {
		return Entry{}, err
	}
	return s.mutate(ctx, userID, ref, "set_rating", func(e Entry) (Entry, error) {
		return e.WithRating(rating)
	})
}

func (s *Service) SetReview(ctx context.Context, userID, ref, text string) (Entry, error) {
	return s.mutate(ctx, userID, ref, "set_review", func(e Entry) (Entry, error) {
		return e.WithReview(text)
	})
}

func (s *Service) ClearReview(ctx context.Context, userID, ref string) (Entry, error) {
	return s.mutate(ctx, userID, ref, "clear_review", func(e Entry) (Entry, error) {
		return e.WithoutReview(), nil
	})
}

func (s *Service) RemoveEntry(ctx context.Context, userID, ref string) error {
	e, _, err := s.entry(ctx, userID, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, e.CatalogID); err != nil {
		return err
	}
	s.logger.Info("library entry removed", "user_id", userID, "catalog_id", e.CatalogID)
	return nil
}

func (s *Service) List(ctx context.Context, userID string, q ListQuery) ([]View, int, error) {
	if err := requireUser(userID); err != nil {
		return nil, 0, err
	}
	q.Q = strings.TrimSpace(q.Q)
	entries, total, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return nil, 0, err
	}

	views := make([]View, 0, len(entries))
	for _, e := range entries {
		book, err := s.books.Lookup(ctx, e.CatalogID)
		if err != nil {
			return nil, 0, fmt.Errorf("lookup book %s: %w", e.CatalogID, err)
		}
		views = append(views, View{Entry: e, Book: book})
	}
	return views, total, nil
}

// CheckStatus reports whether ref is in the user's library. An unknown book
// is simply not in it.
func (s *Service) CheckStatus(ctx context.Context, userID, ref string) (Check, error) {
	e, _, err := s.entry(ctx, userID, ref)
	if errors.Is(err, apperr.ErrNotFound) {
		return Check{}, nil
	}
	if err != nil {
		return Check{}, err
	}
	return Check{InLibrary: true, Status: e.Status}, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := requireUser(userID); err != nil {
		return Stats{}, err
	}
	t, err := s.repo.Tally(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	sum, err := s.summary.Summary(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		ByStatus:   make(map[Status]int, len(Statuses)),
		Rated:      t.Rated,
		LentOut:    sum.LentOut,
		BorrowedIn: sum.BorrowedIn,
		Overdue:    sum.Overdue,
	}
	for _, status := range Statuses {
		st.ByStatus[status] = t.ByStatus[status]
		st.Total += t.ByStatus[status]
	}
	if t.Rated > 0 {
		st.AverageRating = float64(t.RatingSum) / float64(t.Rated)
	}
	return st, nil
}

// PickRandom draws one entry with the given status, for "what should I read next".
func (s *Service) PickRandom(ctx context.Context, userID, status string) (View, error) {
	if err := requireUser(userID); err != nil {
		return View{}, err
	}
	st := StatusUnread
	if status != "" {
		var err error
		if st, err = ParseStatus(status); err != nil {
			return View{}, err
		}
	}

	_, total, err := s.repo.List(ctx, userID, ListQuery{Status: st, Limit: 1})
	if err != nil {
		return View{}, err
	}
	if total == 0 {
		return View{}, apperr.NotFound("No %s books in your library.", st)
	}

	entries, _, err := s.repo.List(ctx, userID, ListQuery{Status: st, Limit: 1, Offset: s.intn(total)})
	if err != nil {
		return View{}, err
	}
	if len(entries) == 0 {
		return View{}, apperr.Conflict("Library changed while picking, retry.")
	}
	book, err := s.books.Lookup(ctx, entries[0].CatalogID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, entries[0], book)
}
