package catalog

import (
	"context"
	"fmt"

	"readmore/internal/dedup"
)

// Cleanup categories accepted by the preview and apply operations.
const (
	CleanupDuplicates = "duplicates"
	CleanupNonEnglish = "non-english"
	CleanupComposites = "composites"
	CleanupSeries     = "series"
	CleanupChildrens  = "childrens"
)

// ErrUnknownCategory is returned for a cleanup category the service
// does not recognize.
var ErrUnknownCategory = fmt.Errorf("unknown cleanup category")

// DuplicateGroup is one preview group: the entry to keep and the ones
// slated for deletion, with reasons.
type DuplicateGroup struct {
	Method     string         `json:"method"`
	Confidence string         `json:"confidence"`
	Keep       Entry          `json:"keep"`
	Remove     []FlaggedEntry `json:"remove"`
}

// FlaggedEntry is an entry a cleanup rule fired on.
type FlaggedEntry struct {
	Entry   Entry    `json:"entry"`
	Reasons []string `json:"reasons"`
}

// CompositeFinding is a composite-volume entry and the standalone
// component entries it duplicates.
type CompositeFinding struct {
	Entry      Entry    `json:"entry"`
	Components []string `json:"components,omitempty"`
	Found      []Entry  `json:"found,omitempty"`
	Confidence string   `json:"confidence"`
	Reason     string   `json:"reason"`
}

// SeriesChange is a proposed consolidation of series name variants.
type SeriesChange struct {
	Canonical  string   `json:"canonical"`
	Variants   []string `json:"variants"`
	EntryIDs   []string `json:"entry_ids"`
	Confidence string   `json:"confidence"`
}

// CleanupPreview is the dry-run result for one author and category.
type CleanupPreview struct {
	Category   string             `json:"category"`
	AuthorID   string             `json:"author_id"`
	Affected   int                `json:"affected"`
	Duplicates []DuplicateGroup   `json:"duplicates,omitempty"`
	Flagged    []FlaggedEntry     `json:"flagged,omitempty"`
	Composites []CompositeFinding `json:"composites,omitempty"`
	Series     []SeriesChange     `json:"series,omitempty"`
}

// CleanupResult reports what an apply actually changed.
type CleanupResult struct {
	Category string `json:"category"`
	AuthorID string `json:"author_id"`
	Deleted  int64  `json:"deleted"`
	Updated  int    `json:"updated"`
}

// PreviewCleanup runs one cleanup category over an author's catalog
// without changing anything.
func (s *Service) PreviewCleanup(ctx context.Context, authorID, category string) (*CleanupPreview, error) {
	entries, byID, err := s.loadForCleanup(ctx, authorID)
	if err != nil {
		return nil, err
	}

	preview := &CleanupPreview{Category: category, AuthorID: authorID}
	records := toRecords(entries)

	switch category {
	case CleanupDuplicates:
		for _, g := range dedup.FindDuplicateGroups(records, s.cfg.SimilarityThreshold) {
			dg := DuplicateGroup{
				Method:     g.Method,
				Confidence: g.Confidence,
				Keep:       byID[g.Keep.ID],
			}
			for _, rm := range g.Remove {
				dg.Remove = append(dg.Remove, FlaggedEntry{Entry: byID[rm.Record.ID], Reasons: rm.Reasons})
				preview.Affected++
			}
			preview.Duplicates = append(preview.Duplicates, dg)
		}

	case CleanupNonEnglish:
		for _, r := range records {
			if v := dedup.ClassifyLanguageWith(r.Title, s.cfg.Accent); v.NonEnglish {
				preview.Flagged = append(preview.Flagged, FlaggedEntry{Entry: byID[r.ID], Reasons: v.Reasons})
				preview.Affected++
			}
		}

	case CleanupComposites:
		for _, r := range records {
			m, ok := dedup.DetectComposite(r, records)
			if !ok {
				continue
			}
			f := CompositeFinding{
				Entry:      byID[r.ID],
				Components: m.ComponentTitles,
				Confidence: m.Confidence,
				Reason:     m.Reason,
			}
			for _, cm := range m.Matches {
				f.Found = append(f.Found, byID[cm.Standalone.ID])
			}
			preview.Composites = append(preview.Composites, f)
			preview.Affected++
		}

	case CleanupSeries:
		for _, c := range dedup.ConsolidateSeries(records) {
			sc := SeriesChange{
				Canonical:  c.Canonical,
				Variants:   c.Variants,
				Confidence: c.Confidence,
			}
			for _, r := range c.Records {
				if byID[r.ID].SeriesName != c.Canonical {
					sc.EntryIDs = append(sc.EntryIDs, r.ID)
				}
			}
			if len(sc.EntryIDs) == 0 {
				continue
			}
			preview.Affected += len(sc.EntryIDs)
			preview.Series = append(preview.Series, sc)
		}

	case CleanupChildrens:
		for _, r := range records {
			if v := dedup.ClassifyChildrens(r); v.Childrens {
				preview.Flagged = append(preview.Flagged, FlaggedEntry{Entry: byID[r.ID], Reasons: []string{v.Reason}})
				preview.Affected++
			}
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return preview, nil
}

// ApplyCleanup executes a cleanup category: duplicates, composites,
// non-English and children's entries are deleted; series consolidation
// rewrites series names in place.
func (s *Service) ApplyCleanup(ctx context.Context, authorID, category string) (*CleanupResult, error) {
	preview, err := s.PreviewCleanup(ctx, authorID, category)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{Category: category, AuthorID: authorID}

	switch category {
	case CleanupDuplicates:
		var ids []string
		for _, g := range preview.Duplicates {
			for _, rm := range g.Remove {
				ids = append(ids, rm.Entry.ID)
			}
		}
		result.Deleted, err = s.deleteEntries(ctx, ids)

	case CleanupNonEnglish, CleanupChildrens:
		var ids []string
		for _, f := range preview.Flagged {
			ids = append(ids, f.Entry.ID)
		}
		result.Deleted, err = s.deleteEntries(ctx, ids)

	case CleanupComposites:
		// Only composites whose components all exist as standalone
		// entries are safe to delete.
		var ids []string
		for _, f := range preview.Composites {
			if f.Confidence == dedup.ConfidenceHigh {
				ids = append(ids, f.Entry.ID)
			}
		}
		result.Deleted, err = s.deleteEntries(ctx, ids)

	case CleanupSeries:
		for _, sc := range preview.Series {
			if err := s.repo.SetSeriesName(ctx, sc.EntryIDs, sc.Canonical); err != nil {
				return nil, fmt.Errorf("set series name %q: %w", sc.Canonical, err)
			}
			result.Updated += len(sc.EntryIDs)
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) deleteEntries(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return n, nil
}

func (s *Service) loadForCleanup(ctx context.Context, authorID string) ([]Entry, map[string]Entry, error) {
	if _, err := s.authors.GetByID(ctx, authorID); err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return entries, byID, nil
}

// toRecords maps stored entries into the engine's record shape.
func toRecords(entries []Entry) []dedup.Record {
	records := make([]dedup.Record, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		records = append(records, dedup.Record{
			ID:              e.ID,
			Title:           e.Title,
			ISBN:            e.ISBN,
			SeriesName:      e.SeriesName,
			SeriesPosition:  e.SeriesPosition,
			OpenLibraryKey:  e.OpenLibraryKey,
			GoogleBooksID:   e.GoogleBooksID,
			Description:     e.Description,
			Categories:      e.Categories,
			PublicationDate: e.PublicationDate,
			HasLinkedBook:   e.MatchedBookID != nil,
			IsRead:          e.IsRead,
		})
	}
	return records
}
