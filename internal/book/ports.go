package book

import (
	"context"
)

// Repository defines the contract for borrowed-book storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	GetByTitleAuthor(ctx context.Context, title, author string) (Book, error)
	ListByAuthor(ctx context.Context, author string) ([]Book, error)
	Insert(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
}
