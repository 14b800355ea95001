package catalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("catalog entry not found")

// ErrAuthorHidden is returned when a fetch is requested for an author
// the user has hidden.
var ErrAuthorHidden = errors.New("author is hidden")

// ErrAuthorNotFoundUpstream is returned when Open Library has no
// matching author record at all.
var ErrAuthorNotFoundUpstream = errors.New("author not found on Open Library")

// Entry is one work in an author's published catalog, merged from Open
// Library and Google Books.
type Entry struct {
	ID              string     `json:"id"`
	AuthorID        string     `json:"author_id"`
	Title           string     `json:"title"`
	ISBN            string     `json:"isbn,omitempty"`
	SeriesName      string     `json:"series_name,omitempty"`
	SeriesPosition  int        `json:"series_position,omitempty"`
	OpenLibraryKey  string     `json:"open_library_key,omitempty"`
	GoogleBooksID   string     `json:"google_books_id,omitempty"`
	Description     string     `json:"description,omitempty"`
	Categories      string     `json:"categories,omitempty"`
	PublicationDate string     `json:"publication_date,omitempty"`
	NonEnglish      bool       `json:"non_english"`
	IsRead          bool       `json:"is_read"`
	MatchedBookID   *string    `json:"matched_book_id,omitempty"`
	FetchedAt       time.Time  `json:"fetched_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FetchResult summarizes one catalog fetch for an author.
type FetchResult struct {
	AuthorID       string `json:"author_id"`
	AuthorName     string `json:"author_name"`
	OpenLibraryKey string `json:"open_library_key,omitempty"`
	Skipped        bool   `json:"skipped"`
	SkipReason     string `json:"skip_reason,omitempty"`
	EntriesFound   int    `json:"entries_found"`
	EntriesStored  int    `json:"entries_stored"`
	Enriched       int    `json:"enriched"`
	MatchedToRead  int    `json:"matched_to_read"`
}
