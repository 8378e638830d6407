package custody

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/logging"
)

type Repository interface {
	Get(ctx context.Context, userID, catalogID string) (Record, error)
	// Update persists rec if the stored version still equals rec.Version and
	// returns the record with its new version. A stale version is a Conflict.
	Update(ctx context.Context, rec Record) (Record, error)
	// ListActive returns the user's records that are lent out or borrowed in.
	ListActive(ctx context.Context, userID string) ([]Record, error)
}

type BookLookup interface {
	Lookup(ctx context.Context, ref string) (catalog.Entry, error)
}

type Service struct {
	repo   Repository
	books  BookLookup
	now    func() time.Time
	logger logging.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, books BookLookup, opts ...Option) *Service {
	s := &Service{repo: repo, books: books, now: time.Now, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RelationInput carries the raw lend/borrow payload. Empty dates default to now.
type RelationInput struct {
	Person string
	Since  string
	Due    string
}

type Summary struct {
	LentOut    int `json:"lent_out"`
	BorrowedIn int `json:"borrowed_in"`
	Overdue    int `json:"overdue"`
}

type OverdueItem struct {
	CatalogID   string    `json:"catalog_id"`
	Title       string    `json:"title"`
	Which       Which     `json:"type"`
	Person      string    `json:"person"`
	Due         time.Time `json:"due"`
	DaysOverdue int       `json:"days_overdue"`
}

func (s *Service) Get(ctx context.Context, userID, ref string) (Record, error) {
	if userID == "" {
		return Record{}, apperr.Unauthorized("Missing user identity.")
	}
	book, err := s.books.Lookup(ctx, ref)
	if err != nil {
		return Record{}, err
	}
	return s.repo.Get(ctx, userID, book.ID)
}

func (s *Service) Lend(ctx context.Context, userID, ref string, in RelationInput) (Record, error) {
	since, due, err := s.relationDates(in)
	if err != nil {
		return Record{}, err
	}
	return s.apply(ctx, userID, ref, "lend", func(r Record) (Record, error) {
		return Lend(r, in.Person, since, due)
	})
}

func (s *Service) ReturnLent(ctx context.Context, userID, ref string) (Record, error) {
	return s.apply(ctx, userID, ref, "return_lent", func(r Record) (Record, error) {
		return ReturnLent(r, s.now())
	})
}

func (s *Service) Borrow(ctx context.Context, userID, ref string, in RelationInput) (Record, error) {
	since, due, err := s.relationDates(in)
	if err != nil {
		return Record{}, err
	}
	return s.apply(ctx, userID, ref, "borrow", func(r Record) (Record, error) {
		return Borrow(r, in.Person, since, due)
	})
}

func (s *Service) ReturnBorrowed(ctx context.Context, userID, ref string) (Record, error) {
	return s.apply(ctx, userID, ref, "return_borrowed", func(r Record) (Record, error) {
		return ReturnBorrowed(r, s.now())
	})
}

func (s *Service) UpdateDueDate(ctx context.Context, userID, ref, which, date string) (Record, error) {
	w, err := ParseWhich(which)
	if err != nil {
		return Record{}, err
	}
	due, err := ParseDate(date)
	if err != nil {
		return Record{}, err
	}
	return s.apply(ctx, userID, ref, "update_due_date", func(r Record) (Record, error) {
		return UpdateDueDate(r, w, due)
	})
}

func (s *Service) UpdateStartDate(ctx context.Context, userID, ref, which, date string) (Record, error) {
	w, err := ParseWhich(which)
	if err != nil {
		return Record{}, err
	}
	since, err := ParseDate(date)
	if err != nil {
		return Record{}, err
	}
	return s.apply(ctx, userID, ref, "update_start_date", func(r Record) (Record, error) {
		return UpdateStartDate(r, w, since)
	})
}

func (s *Service) ClearHistory(ctx context.Context, userID, ref string) (Record, error) {
	return s.apply(ctx, userID, ref, "clear_history", ClearHistory)
}

func (s *Service) Sell(ctx context.Context, userID, ref string) (Record, error) {
	return s.apply(ctx, userID, ref, "sell", Sell)
}

func (s *Service) Buy(ctx context.Context, userID, ref string) (Record, error) {
	return s.apply(ctx, userID, ref, "buy", Buy)
}

// apply runs one read-transition-write cycle. The write is a version
// compare-and-swap; it is not retried here.
func (s *Service) apply(ctx context.Context, userID, ref, op string, transition func(Record) (Record, error)) (Record, error) {
	if userID == "" {
		return Record{}, apperr.Unauthorized("Missing user identity.")
	}
	book, err := s.books.Lookup(ctx, ref)
	if err != nil {
		return Record{}, err
	}

	current, err := s.repo.Get(ctx, userID, book.ID)
	if err != nil {
		return Record{}, err
	}

	next, err := transition(current)
	if err != nil {
		return Record{}, err
	}
	next.UpdatedAt = s.now()

	saved, err := s.repo.Update(ctx, next)
	if err != nil {
		return Record{}, err
	}

	s.logger.Info("custody changed",
		"op", op,
		"user_id", userID,
		"catalog_id", book.ID,
		"state", saved.State(),
		"version", saved.Version,
	)
	return saved, nil
}

func (s *Service) relationDates(in RelationInput) (time.Time, *time.Time, error) {
	since := s.now()
	if in.Since != "" {
		t, err := ParseDate(in.Since)
		if err != nil {
			return time.Time{}, nil, err
		}
		since = t
	}
	if in.Due == "" {
		return since, nil, nil
	}
	due, err := ParseDate(in.Due)
	if err != nil {
		return time.Time{}, nil, err
	}
	return since, &due, nil
}

// Overdue lists every active relation of the user whose due date has passed,
// oldest due date first.
func (s *Service) Overdue(ctx context.Context, userID string) ([]OverdueItem, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Missing user identity.")
	}
	records, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := []OverdueItem{}
	for _, rec := range records {
		for _, which := range rec.OverdueAt(now) {
			book, err := s.books.Lookup(ctx, rec.CatalogID)
			if err != nil {
				return nil, fmt.Errorf("lookup overdue book %s: %w", rec.CatalogID, err)
			}
			rel := rec.relation(which)
			items = append(items, OverdueItem{
				CatalogID:   rec.CatalogID,
				Title:       book.Title,
				Which:       which,
				Person:      rel.Person,
				Due:         *rel.Due,
				DaysOverdue: int(now.Sub(*rel.Due).Hours() / 24),
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Due.Before(items[j].Due) })
	return items, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	records, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	now := s.now()
	var sum Summary
	for _, rec := range records {
		if rec.Lent != nil {
			sum.LentOut++
		}
		if rec.Borrowed != nil {
			sum.BorrowedIn++
		}
		sum.Overdue += len(rec.OverdueAt(now))
	}
	return sum, nil
}
