package author

import (
	"context"
)

// Repository defines the contract for author storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Author, int, error)
	GetByID(ctx context.Context, id string) (Author, error)
	GetByNormalized(ctx context.Context, normalized string) (Author, error)
	Upsert(ctx context.Context, a *Author) error
	SetHidden(ctx context.Context, id string, hidden bool) error
	SetOpenLibraryKey(ctx context.Context, id string, key string) error
	TouchCatalogCheck(ctx context.Context, id string) error
}
