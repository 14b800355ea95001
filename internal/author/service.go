package author

import (
	"context"
	"fmt"
)

// Service manages the author catalog roster.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns authors matching the query. Hidden authors are excluded
// unless the query asks for them.
func (s *Service) List(ctx context.Context, q Query) ([]Author, int, error) {
	return s.repo.List(ctx, q)
}

// Get returns a single author by ID.
func (s *Service) Get(ctx context.Context, id string) (Author, error) {
	return s.repo.GetByID(ctx, id)
}

// Hide removes an author from catalog fetches and recommendations
// without deleting their history.
func (s *Service) Hide(ctx context.Context, id string) error {
	if err := s.repo.SetHidden(ctx, id, true); err != nil {
		return fmt.Errorf("hide author %s: %w", id, err)
	}
	return nil
}

// Unhide restores a hidden author.
func (s *Service) Unhide(ctx context.Context, id string) error {
	if err := s.repo.SetHidden(ctx, id, false); err != nil {
		return fmt.Errorf("unhide author %s: %w", id, err)
	}
	return nil
}
