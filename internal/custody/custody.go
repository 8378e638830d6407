// Package custody tracks where a user's copy of a book physically is: on the
// shelf, lent to someone, or borrowed from someone, with a history log.
package custody

import (
	"strings"
	"time"

	"bookshelf/internal/apperr"
)

type Action string

const (
	ActionLent     Action = "lent"
	ActionBorrowed Action = "borrowed"
	ActionReturned Action = "returned"
	ActionGaveBack Action = "gave back"
)

type State string

const (
	StateOnShelf    State = "on_shelf"
	StateLentOut    State = "lent_out"
	StateBorrowedIn State = "borrowed_in"
	StateSold       State = "sold"
)

// Which selects one of the two relations a record can hold.
type Which string

const (
	WhichLent     Which = "lent"
	WhichBorrowed Which = "borrowed"
)

func ParseWhich(s string) (Which, error) {
	switch Which(strings.ToLower(strings.TrimSpace(s))) {
	case WhichLent:
		return WhichLent, nil
	case WhichBorrowed:
		return WhichBorrowed, nil
	}
	return "", apperr.InvalidInput("Type must be lent or borrowed.")
}

type Relation struct {
	Person string     `json:"person"`
	Since  time.Time  `json:"since"`
	Due    *time.Time `json:"due,omitempty"`
}

type Event struct {
	Action Action    `json:"action"`
	Person string    `json:"person"`
	Date   time.Time `json:"date"`
}

type Record struct {
	UserID    string    `json:"user_id"`
	CatalogID string    `json:"catalog_id"`
	OnShelf   bool      `json:"on_shelf"`
	Owned     bool      `json:"owned"`
	Lent      *Relation `json:"lent"`
	Borrowed  *Relation `json:"borrowed"`
	History   []Event   `json:"history"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"-"`
}

// New returns the record created together with a library entry: owned and on the shelf.
func New(userID, catalogID string, now time.Time) Record {
	return Record{
		UserID:    userID,
		CatalogID: catalogID,
		OnShelf:   true,
		Owned:     true,
		History:   []Event{},
		UpdatedAt: now,
	}
}

func (r Record) State() State {
	switch {
	case r.Borrowed != nil:
		return StateBorrowedIn
	case r.Lent != nil:
		return StateLentOut
	case !r.Owned:
		return StateSold
	default:
		return StateOnShelf
	}
}

func (r Record) relation(which Which) *Relation {
	if which == WhichLent {
		return r.Lent
	}
	return r.Borrowed
}

// Clone deep copies r so transitions never share relations or history with their input.
func (r Record) Clone() Record {
	out := r
	if r.Lent != nil {
		out.Lent = r.Lent.clone()
	}
	if r.Borrowed != nil {
		out.Borrowed = r.Borrowed.clone()
	}
	out.History = make([]Event, len(r.History))
	copy(out.History, r.History)
	return out
}

func (rel *Relation) clone() *Relation {
	c := *rel
	if rel.Due != nil {
		due := *rel.Due
		c.Due = &due
	}
	return &c
}

// settle derives OnShelf. A borrowed copy sits on the shelf; an owned copy
// does unless it is lent out.
func (r *Record) settle() {
	r.OnShelf = r.Borrowed != nil || (r.Owned && r.Lent == nil)
}

// OverdueAt lists the active relations whose due date is before now.
func (r Record) OverdueAt(now time.Time) []Which {
	var out []Which
	for _, w := range []Which{WhichLent, WhichBorrowed} {
		if rel := r.relation(w); rel != nil && rel.Due != nil && rel.Due.Before(now) {
			out = append(out, w)
		}
	}
	return out
}
