package recommend

import (
	"context"
)

// Repository defines the contract for recommendation storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Recommendation, int, error)
	GetByID(ctx context.Context, id string) (Recommendation, error)
	Upsert(ctx context.Context, rec *Recommendation) error
	SetFeedback(ctx context.Context, id string, feedback string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	CountReadByAuthor(ctx context.Context, authorID string) (int, error)
}
