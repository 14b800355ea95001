package catalog

import (
	"context"

	"readmore/internal/platform/googlebooks"
	"readmore/internal/platform/openlibrary"
)

// Repository defines the contract for catalog entry storage.
type Repository interface {
	ListByAuthor(ctx context.Context, authorID string) ([]Entry, error)
	GetByID(ctx context.Context, id string) (Entry, error)
	Upsert(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, ids []string) (int64, error)
	SetSeriesName(ctx context.Context, ids []string, name string) error
	MarkRead(ctx context.Context, id string, matchedBookID string) error
	SetNonEnglish(ctx context.Context, ids []string, nonEnglish bool) error
}

// OpenLibraryClient is the slice of the Open Library API the fetcher
// needs. *openlibrary.Client satisfies it.
type OpenLibraryClient interface {
	SearchAuthors(ctx context.Context, name string) ([]openlibrary.AuthorDoc, error)
	AuthorWorks(ctx context.Context, authorKey string, limit int) ([]openlibrary.Work, error)
	GetWork(ctx context.Context, workKey string) (*openlibrary.WorkDetails, error)
	WorkEditions(ctx context.Context, workKey string) ([]openlibrary.Edition, error)
}

// GoogleBooksClient is the slice of the Google Books API used for
// enrichment. *googlebooks.Client satisfies it.
type GoogleBooksClient interface {
	SearchByAuthor(ctx context.Context, author string, maxResults int) ([]googlebooks.Volume, error)
	GetByISBN(ctx context.Context, isbn string) (*googlebooks.Volume, error)
}
