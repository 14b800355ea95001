package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"readmore/internal/author"
	"readmore/internal/book"
	"readmore/internal/dedup"
)

// ErrMissingColumns is returned when the CSV lacks the title or author
// column.
var ErrMissingColumns = errors.New("csv is missing title or author column")

// Options control one import run.
type Options struct {
	// UpdateExisting refreshes rows already present instead of
	// skipping them.
	UpdateExisting bool
	// DryRun parses and counts without writing anything.
	DryRun bool
}

// Stats summarizes one import run.
type Stats struct {
	Rows     int `json:"rows"`
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Authors  int `json:"authors"`
	Errors   int `json:"errors"`
}

// Service imports borrowing history and seeds authors.
type Service struct {
	books   book.Repository
	authors author.Repository
}

func NewService(books book.Repository, authors author.Repository) *Service {
	return &Service{books: books, authors: authors}
}

// ImportCSV reads a Libby export and stores each loan. Rows already
// present (matched by ISBN, then by title and author) are skipped
// unless updating is requested.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["title"]; !ok {
		return nil, ErrMissingColumns
	}
	if _, ok := cols["author"]; !ok {
		return nil, ErrMissingColumns
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	stats := &Stats{}
	seenAuthors := map[string]bool{}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Errors++
			continue
		}
		stats.Rows++

		title := cell(row, "title")
		rawAuthor := cell(row, "author")
		if title == "" || rawAuthor == "" {
			stats.Skipped++
			continue
		}

		b := book.Book{
			Title:        title,
			Author:       NormalizeAuthorName(rawAuthor),
			AuthorRaw:    rawAuthor,
			Publisher:    cell(row, "publisher"),
			ISBN:         dedup.NormalizeISBN(cell(row, "isbn")),
			CoverURL:     cell(row, "cover"),
			Library:      cell(row, "library"),
			LoanDuration: cell(row, "details"),
		}
		b.Format = DetectFormat(b.Publisher)
		if t, ok := ParseBorrowDate(cell(row, "timestamp")); ok {
			b.BorrowedAt = &t
		}

		if !seenAuthors[b.Author] {
			seenAuthors[b.Author] = true
			stats.Authors++
			if !opts.DryRun {
				a := author.Author{Name: CleanAuthorName(rawAuthor), NormalizedName: b.Author}
				if err := s.authors.Upsert(ctx, &a); err != nil {
					return stats, fmt.Errorf("upsert author %q: %w", a.Name, err)
				}
			}
		}

		existing, found, err := s.findExisting(ctx, b)
		if err != nil {
			return stats, err
		}

		switch {
		case found && !opts.UpdateExisting:
			stats.Skipped++
		case found:
			merged := mergeBook(existing, b)
			if !opts.DryRun {
				if err := s.books.Update(ctx, &merged); err != nil {
					return stats, fmt.Errorf("update book %q: %w", b.Title, err)
				}
			}
			stats.Updated++
		default:
			if !opts.DryRun {
				if err := s.books.Insert(ctx, &b); err != nil {
					return stats, fmt.Errorf("insert book %q: %w", b.Title, err)
				}
			}
			stats.Imported++
		}
	}

	log.Printf("level=info msg=\"csv import finished\" rows=%d imported=%d updated=%d skipped=%d authors=%d errors=%d dry_run=%t",
		stats.Rows, stats.Imported, stats.Updated, stats.Skipped, stats.Authors, stats.Errors, opts.DryRun)
	return stats, nil
}

func (s *Service) findExisting(ctx context.Context, b book.Book) (book.Book, bool, error) {
	if b.ISBN != "" {
		existing, err := s.books.GetByISBN(ctx, b.ISBN)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, book.ErrNotFound) {
			return book.Book{}, false, fmt.Errorf("lookup by isbn: %w", err)
		}
	}
	existing, err := s.books.GetByTitleAuthor(ctx, b.Title, b.Author)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, book.ErrNotFound) {
		return book.Book{}, false, fmt.Errorf("lookup by title/author: %w", err)
	}
	return book.Book{}, false, nil
}

// mergeBook overlays fresh export data onto the stored row, filling
// blanks without discarding anything already known.
func mergeBook(existing, incoming book.Book) book.Book {
	merged := existing
	if incoming.ISBN != "" {
		merged.ISBN = incoming.ISBN
	}
	if incoming.Publisher != "" {
		merged.Publisher = incoming.Publisher
		merged.Format = incoming.Format
	}
	if incoming.CoverURL != "" {
		merged.CoverURL = incoming.CoverURL
	}
	if incoming.Library != "" {
		merged.Library = incoming.Library
	}
	if incoming.LoanDuration != "" {
		merged.LoanDuration = incoming.LoanDuration
	}
	if incoming.BorrowedAt != nil {
		merged.BorrowedAt = incoming.BorrowedAt
	}
	return merged
}
