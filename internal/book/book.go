package book

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Formats detected from the export's publisher field.
const (
	FormatAudiobook = "audiobook"
	FormatEbook     = "ebook"
	FormatUnknown   = "unknown"
)

// Book is one borrowed title from the reading-history CSV export.
// Author holds the normalized name used for matching; AuthorRaw keeps
// the export's original spelling for display.
type Book struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	AuthorRaw    string     `json:"author_raw,omitempty"`
	Publisher    string     `json:"publisher,omitempty"`
	ISBN         string     `json:"isbn,omitempty"`
	Format       string     `json:"format"`
	CoverURL     string     `json:"cover_url,omitempty"`
	Library      string     `json:"library,omitempty"`
	BorrowedAt   *time.Time `json:"borrowed_at,omitempty"`
	LoanDuration string     `json:"loan_duration,omitempty"`
	AlreadyRead  bool       `json:"already_read"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Query defines filters and pagination for listing borrowed books.
// Cursor paginates by (borrowed_at, id) descending and takes precedence
// over Offset when set.
type Query struct {
	Author string
	Format string
	Q      string
	Cursor string
	Limit  int
	Offset int
}
