package custody

import (
	"strings"
	"time"
	"unicode/utf8"

	"bookshelf/internal/apperr"
)

const maxPersonLength = 200

// Transitions take a record by value and return the next record. On error the
// input is returned unchanged, so callers never persist a partial change.

func Lend(r Record, person string, since time.Time, due *time.Time) (Record, error) {
	person, err := cleanPerson(person)
	if err != nil {
		return r, err
	}
	switch {
	case r.Lent != nil:
		return r, apperr.InvalidTransition("Book already lent out.")
	case r.Borrowed != nil:
		return r, apperr.InvalidTransition("Book is borrowed and cannot be lent.")
	case !r.Owned:
		return r, apperr.InvalidTransition("Book is not owned and cannot be lent.")
	}

	next := r.Clone()
	next.Lent = &Relation{Person: person, Since: since, Due: due}
	next.History = append(next.History, Event{Action: ActionLent, Person: person, Date: since})
	next.settle()
	return next, nil
}

func ReturnLent(r Record, now time.Time) (Record, error) {
	if r.Lent == nil {
		return r, apperr.InvalidTransition("Book is not lent out.")
	}

	next := r.Clone()
	next.History = append(next.History, Event{Action: ActionReturned, Person: r.Lent.Person, Date: now})
	next.Lent = nil
	next.settle()
	return next, nil
}

func Borrow(r Record, person string, since time.Time, due *time.Time) (Record, error) {
	person, err := cleanPerson(person)
	if err != nil {
		return r, err
	}
	if r.Borrowed != nil {
		return r, apperr.InvalidTransition("Book already borrowed.")
	}

	next := r.Clone()
	next.Borrowed = &Relation{Person: person, Since: since, Due: due}
	next.History = append(next.History, Event{Action: ActionBorrowed, Person: person, Date: since})
	next.settle()
	return next, nil
}

// ReturnBorrowed gives the borrowed copy back. The record falls back to
// whatever the owned copy was doing before: lent out, sold, or on the shelf.
func ReturnBorrowed(r Record, now time.Time) (Record, error) {
	if r.Borrowed == nil {
		return r, apperr.InvalidTransition("Book is not borrowed.")
	}

	next := r.Clone()
	next.History = append(next.History, Event{Action: ActionGaveBack, Person: r.Borrowed.Person, Date: now})
	next.Borrowed = nil
	next.settle()
	return next, nil
}

func UpdateDueDate(r Record, which Which, due time.Time) (Record, error) {
	if r.relation(which) == nil {
		return r, notActive(which)
	}

	next := r.Clone()
	next.relation(which).Due = &due
	return next, nil
}

// UpdateStartDate corrects the date lent or date borrowed. History keeps the
// date originally recorded.
func UpdateStartDate(r Record, which Which, since time.Time) (Record, error) {
	if r.relation(which) == nil {
		return r, notActive(which)
	}

	next := r.Clone()
	next.relation(which).Since = since
	return next, nil
}

func ClearHistory(r Record) (Record, error) {
	next := r.Clone()
	next.History = []Event{}
	return next, nil
}

// Sell marks the user's own copy as gone. It does not touch history.
func Sell(r Record) (Record, error) {
	switch {
	case !r.Owned:
		return r, apperr.InvalidTransition("Book already sold.")
	case r.Lent != nil:
		return r, apperr.InvalidTransition("Book is lent out and cannot be sold.")
	case r.Borrowed != nil:
		return r, apperr.InvalidTransition("Book is borrowed and cannot be sold.")
	}

	next := r.Clone()
	next.Owned = false
	next.settle()
	return next, nil
}

func Buy(r Record) (Record, error) {
	if r.Owned {
		return r, apperr.InvalidTransition("Book already owned.")
	}

	next := r.Clone()
	next.Owned = true
	next.settle()
	return next, nil
}

func notActive(which Which) error {
	if which == WhichLent {
		return apperr.InvalidTransition("Book is not currently lent out.")
	}
	return apperr.InvalidTransition("Book is not currently borrowed.")
}

func cleanPerson(person string) (string, error) {
	person = strings.TrimSpace(person)
	if person == "" {
		return "", apperr.InvalidInput("Person is required.")
	}
	if utf8.RuneCountInString(person) > maxPersonLength {
		return "", apperr.InvalidInput("Person must be at most %d characters.", maxPersonLength)
	}
	return person, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// ParseDate accepts RFC 3339 timestamps and YYYY-MM-DD dates (as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.InvalidInput("Date is required.")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.InvalidInput("Invalid date %q, expected YYYY-MM-DD or RFC 3339.", s)
}
