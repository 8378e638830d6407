// Package library holds a user's personal entries for catalog books and the
// reading-status rules that apply to them.
package library

import (
	"strings"
	"time"
	"unicode/utf8"

	"bookshelf/internal/apperr"
	"bookshelf/internal/catalog"
	"bookshelf/internal/custody"
)

type Status string

const (
	StatusUnread  Status = "unread"
	StatusReading Status = "reading"
	StatusRead    Status = "read"
	StatusDNF     Status = "dnf"
)

// Statuses lists every reading status in display order.
var Statuses = []Status{StatusUnread, StatusReading, StatusRead, StatusDNF}

var statusAliases = map[string]Status{
	"unread":            StatusUnread,
	"want to read":      StatusUnread,
	"want-to-read":      StatusUnread,
	"reading":           StatusReading,
	"currently reading": StatusReading,
	"currently-reading": StatusReading,
	"read":              StatusRead,
	"dnf":               StatusDNF,
	"did not finish":    StatusDNF,
}

// ParseStatus accepts the canonical values and the spellings older clients send.
func ParseStatus(s string) (Status, error) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", apperr.InvalidInput("Invalid status %q, expected one of unread, reading, read, dnf.", s)
	}
	return st, nil
}

const (
	MaxProgress     = 100
	MaxRating       = 5
	maxReviewLength = 10000
)

type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CatalogID string    `json:"catalog_id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"-"`
}

// View is an entry together with its book and custody record.
type View struct {
	Entry        Entry           `json:"entry"`
	Book         catalog.Entry   `json:"book"`
	Custody      *custody.Record `json:"custody,omitempty"`
	CustodyState custody.State   `json:"custody_state,omitempty"`
}

type ListQuery struct {
	Status Status
	Q      string
	Limit  int
	Offset int
}

// Tally is the per-user aggregate the repository computes for Stats.
type Tally struct {
	ByStatus  map[Status]int
	RatingSum int
	Rated     int
}

type Stats struct {
	Total         int            `json:"total"`
	ByStatus      map[Status]int `json:"by_status"`
	Rated         int            `json:"rated"`
	AverageRating float64        `json:"average_rating"`
	LentOut       int            `json:"lent_out"`
	BorrowedIn    int            `json:"borrowed_in"`
	Overdue       int            `json:"overdue"`
}

type Check struct {
	InLibrary bool   `json:"in_library"`
	Status    Status `json:"status,omitempty"`
}

// The setters below return a modified copy and leave e untouched on error.

func (e Entry) WithStatus(s Status) Entry {
	e.Status = s
	return e
}

// WithProgress stores p. Reaching 100 marks the entry read; nothing else
// changes the status.
func (e Entry) WithProgress(p int) (Entry, error) {
	if p < 0 || p > MaxProgress {
		return e, apperr.InvalidInput("Progress must be between 0 and %d.", MaxProgress)
	}
	e.Progress = p
	if p == MaxProgress {
		e.Status = StatusRead
	}
	return e, nil
}

// WithRating stores r; 0 means unrated.
func (e Entry) WithRating(r int) (Entry, error) {
	if r < 0 || r > MaxRating {
		return e, apperr.InvalidInput("Rating must be between 0 and %d.", MaxRating)
	}
	e.Rating = r
	return e, nil
}

func (e Entry) WithReview(text string) (Entry, error) {
	if utf8.RuneCountInString(text) > maxReviewLength {
		return e, apperr.InvalidInput("Review must be at most %d characters.", maxReviewLength)
	}
	e.Review = text
	return e, nil
}

func (e Entry) WithoutReview() Entry {
	e.Review = ""
	return e
}
