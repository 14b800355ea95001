package recommend

import (
	"context"
	"fmt"
	"sort"

	"readmore/internal/author"
	"readmore/internal/book"
	"readmore/internal/catalog"
	"readmore/internal/dedup"
)

// sameAuthorScore is the fixed score for same-author suggestions; the
// single strategy today. A future similar-genre strategy would score
// lower.
const sameAuthorScore = 0.95

// Service derives recommendations from fetched author catalogs.
type Service struct {
	repo     Repository
	authors  author.Repository
	catalogs catalog.Repository
	books    book.Repository
}

func NewService(repo Repository, authors author.Repository, catalogs catalog.Repository, books book.Repository) *Service {
	return &Service{repo: repo, authors: authors, catalogs: catalogs, books: books}
}

// GenerateResult summarizes one generation pass.
type GenerateResult struct {
	AuthorID  string `json:"author_id"`
	Skipped   bool   `json:"skipped"`
	Generated int    `json:"generated"`
}

// GenerateForAuthor turns the author's unread, English catalog entries
// into recommendations. Existing feedback survives regeneration.
func (s *Service) GenerateForAuthor(ctx context.Context, authorID string) (*GenerateResult, error) {
	a, err := s.authors.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	result := &GenerateResult{AuthorID: authorID}
	if a.Hidden {
		result.Skipped = true
		return result, nil
	}

	entries, err := s.catalogs.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	borrowed, err := s.books.ListByAuthor(ctx, a.NormalizedName)
	if err != nil {
		return nil, err
	}

	readCount := len(borrowed)
	reason := fmt.Sprintf("You've listened to %d other books by %s", readCount, a.Name)
	if readCount == 1 {
		reason = fmt.Sprintf("You've listened to another book by %s", a.Name)
	}

	for _, e := range entries {
		if e.IsRead || e.NonEnglish {
			continue
		}
		rec := Recommendation{
			AuthorID:   authorID,
			AuthorName: a.Name,
			EntryID:    e.ID,
			Title:      e.Title,
			ISBN:       e.ISBN,
			SeriesName: e.SeriesName,
			Score:      sameAuthorScore,
			Reason:     reason,
			Fiction:    IsFiction(e.Categories),
			NonEnglish: e.NonEnglish,
		}
		if err := s.repo.Upsert(ctx, &rec); err != nil {
			return nil, fmt.Errorf("store recommendation %q: %w", e.Title, err)
		}
		result.Generated++
	}
	return result, nil
}

// List returns stored recommendations, downvoted and non-English ones
// filtered out unless asked for.
func (s *Service) List(ctx context.Context, q Query) ([]Recommendation, int, error) {
	return s.repo.List(ctx, q)
}

// SetFeedback records a thumbs up or down, or clears one.
func (s *Service) SetFeedback(ctx context.Context, id, feedback string) error {
	switch feedback {
	case FeedbackUp, FeedbackDown:
	case "clear":
		feedback = FeedbackNone
	default:
		return ErrBadFeedback
	}
	return s.repo.SetFeedback(ctx, id, feedback)
}

// SeriesProgressForAuthor reports per-series reading progress from the
// author's catalog entries. Series name variants are merged the same
// way the consolidation cleanup merges them.
func (s *Service) SeriesProgressForAuthor(ctx context.Context, authorID string) ([]SeriesProgress, error) {
	if _, err := s.authors.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	entries, err := s.catalogs.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	type seriesAcc struct {
		name   string
		total  int
		read   int
		unread []catalog.Entry
	}
	acc := map[string]*seriesAcc{}
	var order []string
	for _, e := range entries {
		if e.SeriesName == "" {
			continue
		}
		key := dedup.NormalizeSeriesName(e.SeriesName)
		sa, ok := acc[key]
		if !ok {
			sa = &seriesAcc{name: e.SeriesName}
			acc[key] = sa
			order = append(order, key)
		}
		sa.total++
		if e.IsRead {
			sa.read++
		} else {
			sa.unread = append(sa.unread, e)
		}
	}

	progress := make([]SeriesProgress, 0, len(order))
	for _, key := range order {
		sa := acc[key]
		p := SeriesProgress{
			AuthorID:   authorID,
			SeriesName: sa.name,
			Total:      sa.total,
			Read:       sa.read,
		}
		switch {
		case sa.read == 0:
			p.State = SeriesNotStarted
		case sa.read == sa.total:
			p.State = SeriesComplete
		default:
			p.State = SeriesPartial
		}
		if len(sa.unread) > 0 {
			sort.SliceStable(sa.unread, func(i, j int) bool {
				return sa.unread[i].SeriesPosition < sa.unread[j].SeriesPosition
			})
			p.NextUnread = sa.unread[0].Title
		}
		progress = append(progress, p)
	}
	return progress, nil
}
