package catalog

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/platform/googlebooks"
)

// Entry is the shared bibliographic record for one ISBN.
type Entry struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	ISBN          string    `json:"isbn"`
	Identifiers   []string  `json:"identifiers,omitempty"`
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	Description   string    `json:"description,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	PageCount     int       `json:"page_count,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	CoverURL      string    `json:"cover_url,omitempty"`
	Language      string    `json:"language,omitempty"`
	Links         Links     `json:"links"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Links struct {
	Info      string `json:"info,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Canonical string `json:"canonical,omitempty"`
}

// SearchResult is one hit from the metadata provider. It is not stored.
type SearchResult struct {
	ExternalID    string   `json:"external_id"`
	ISBN          string   `json:"isbn,omitempty"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"published_date,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
}

// MissingOptional reports whether any backfillable field is empty.
func (e Entry) MissingOptional() bool {
	return e.Description == "" || len(e.Categories) == 0 || e.PageCount == 0 ||
		e.PublishedDate == "" || e.Publisher == "" || e.CoverURL == "" ||
		e.Language == "" || len(e.Authors) == 0
}

// Backfilled returns e with its empty optional fields taken from patch.
// Fields e already has are never overwritten.
func (e Entry) Backfilled(patch Entry) Entry {
	if len(e.Authors) == 0 {
		e.Authors = patch.Authors
	}
	if e.Description == "" {
		e.Description = patch.Description
	}
	if len(e.Categories) == 0 {
		e.Categories = patch.Categories
	}
	if e.PageCount == 0 {
		e.PageCount = patch.PageCount
	}
	if e.PublishedDate == "" {
		e.PublishedDate = patch.PublishedDate
	}
	if e.Publisher == "" {
		e.Publisher = patch.Publisher
	}
	if e.CoverURL == "" {
		e.CoverURL = patch.CoverURL
	}
	if e.Language == "" {
		e.Language = patch.Language
	}
	return e
}

var (
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern = regexp.MustCompile(`^\d{13}$`)
)

func stripIdentifier(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeISBN strips separators and reports whether the result looks like
// an ISBN-10 or ISBN-13.
func NormalizeISBN(s string) (string, bool) {
	isbn := stripIdentifier(s)
	return isbn, isbn10Pattern.MatchString(isbn) || isbn13Pattern.MatchString(isbn)
}

// ISBNForms returns isbn followed by its ISBN-10 or ISBN-13 counterpart
// when one exists. isbn must already be normalized.
func ISBNForms(isbn string) []string {
	switch {
	case isbn10Pattern.MatchString(isbn):
		return []string{isbn, isbn10To13(isbn)}
	case isbn13Pattern.MatchString(isbn) && strings.HasPrefix(isbn, "978"):
		return []string{isbn, isbn13To10(isbn)}
	}
	return []string{isbn}
}

func isbn10To13(isbn10 string) string {
	body := "978" + isbn10[:9]
	sum := 0
	for i, c := range body {
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return body + strconv.Itoa((10-sum%10)%10)
}

func isbn13To10(isbn13 string) string {
	body := isbn13[3:12]
	sum := 0
	for i, c := range body {
		sum += (10 - i) * int(c-'0')
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X"
	}
	return body + strconv.Itoa(check)
}

// Aliases lists every reference the entry answers to besides its ID: the
// stored identifiers, the ISBN and the provider volume ID, with ISBNs in
// both their 10 and 13 digit forms. The result is sorted and deduplicated.
func (e Entry) Aliases() []string {
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if isbn, ok := NormalizeISBN(s); ok {
			out = append(out, ISBNForms(isbn)...)
			return
		}
		out = append(out, s)
	}
	for _, id := range e.Identifiers {
		add(id)
	}
	add(e.ISBN)
	add(e.ExternalID)
	slices.Sort(out)
	return slices.Compact(out)
}

// PreferredISBN picks the catalog key for a volume: the first ISBN_13, else
// the first identifier of any type.
func PreferredISBN(ids []googlebooks.IndustryIdentifier) (string, bool) {
	for _, id := range ids {
		if id.Type == "ISBN_13" && strings.TrimSpace(id.Identifier) != "" {
			return stripIdentifier(id.Identifier), true
		}
	}
	for _, id := range ids {
		if strings.TrimSpace(id.Identifier) != "" {
			return stripIdentifier(id.Identifier), true
		}
	}
	return "", false
}

func fromVolume(v *googlebooks.Volume, isbn string) Entry {
	info := v.VolumeInfo
	title := info.Title
	if info.Subtitle != "" {
		title = info.Title + ": " + info.Subtitle
	}
	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}
	ids := []string{v.ID}
	for _, id := range info.IndustryIdentifiers {
		if s := stripIdentifier(id.Identifier); s != "" {
			ids = append(ids, s)
		}
	}
	return Entry{
		ExternalID:    v.ID,
		ISBN:          isbn,
		Identifiers:   ids,
		Title:         title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		PageCount:     info.PageCount,
		PublishedDate: info.PublishedDate,
		Publisher:     info.Publisher,
		CoverURL:      cover,
		Language:      info.Language,
		Links: Links{
			Info:      info.InfoLink,
			Preview:   info.PreviewLink,
			Canonical: info.CanonicalVolumeLink,
		},
	}
}

func searchResultFromVolume(v googlebooks.Volume) SearchResult {
	isbn, _ := PreferredISBN(v.VolumeInfo.IndustryIdentifiers)
	return SearchResult{
		ExternalID:    v.ID,
		ISBN:          isbn,
		Title:         v.VolumeInfo.Title,
		Authors:       v.VolumeInfo.Authors,
		PublishedDate: v.VolumeInfo.PublishedDate,
		CoverURL:      v.VolumeInfo.ImageLinks.Thumbnail,
	}
}
