package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"readmore/internal/author"
	"readmore/internal/book"
	"readmore/internal/dedup"
	"readmore/internal/platform/googlebooks"
)

// Config tunes the catalog fetcher.
type Config struct {
	// FreshnessDays skips refetching an author checked this recently.
	FreshnessDays int
	// WorksLimit caps how many works are pulled per author from Open
	// Library.
	WorksLimit int
	// GoogleBooksMax caps the enrichment search page size (the API
	// maximum is 40).
	GoogleBooksMax int
	// CandidateAuthors is how many search results are tested against
	// the reading history before falling back to the top hit.
	CandidateAuthors int
	// SimilarityThreshold is the fuzzy-match cutoff used by the
	// duplicate cleanup.
	SimilarityThreshold float64
	// Accent tunes the accented-character language heuristic.
	Accent dedup.AccentConfig
}

func DefaultConfig() Config {
	return Config{
		FreshnessDays:       7,
		WorksLimit:          200,
		GoogleBooksMax:      40,
		CandidateAuthors:    5,
		SimilarityThreshold: dedup.DefaultSimilarityThreshold,
		Accent:              dedup.DefaultAccentConfig(),
	}
}

// Service fetches author catalogs from Open Library and Google Books,
// stores them, and matches them against the borrowing history.
type Service struct {
	repo    Repository
	authors author.Repository
	books   book.Repository
	ol      OpenLibraryClient
	gb      GoogleBooksClient
	cfg     Config
}

func NewService(repo Repository, authors author.Repository, books book.Repository, ol OpenLibraryClient, gb GoogleBooksClient, cfg Config) *Service {
	if cfg.FreshnessDays <= 0 {
		cfg.FreshnessDays = 7
	}
	if cfg.WorksLimit <= 0 {
		cfg.WorksLimit = 200
	}
	if cfg.GoogleBooksMax <= 0 {
		cfg.GoogleBooksMax = 40
	}
	if cfg.CandidateAuthors <= 0 {
		cfg.CandidateAuthors = 5
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = dedup.DefaultSimilarityThreshold
	}
	if cfg.Accent == (dedup.AccentConfig{}) {
		cfg.Accent = dedup.DefaultAccentConfig()
	}
	return &Service{repo: repo, authors: authors, books: books, ol: ol, gb: gb, cfg: cfg}
}

// ListEntries returns the stored catalog for one author.
func (s *Service) ListEntries(ctx context.Context, authorID string) ([]Entry, error) {
	if _, err := s.authors.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	return s.repo.ListByAuthor(ctx, authorID)
}

// FetchAuthorCatalog pulls the author's published works from Open
// Library, enriches them from Google Books, stores the merged entries
// and marks the ones already borrowed. A recent fetch is skipped unless
// force is set.
func (s *Service) FetchAuthorCatalog(ctx context.Context, authorID string, force bool) (*FetchResult, error) {
	a, err := s.authors.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if a.Hidden {
		return nil, ErrAuthorHidden
	}

	result := &FetchResult{AuthorID: a.ID, AuthorName: a.Name}

	if !force && a.CatalogCount >= 1 && a.LastCatalogCheck != nil {
		age := time.Since(*a.LastCatalogCheck)
		if age < time.Duration(s.cfg.FreshnessDays)*24*time.Hour {
			result.Skipped = true
			result.SkipReason = fmt.Sprintf("catalog checked %.0f hours ago", age.Hours())
			return result, nil
		}
	}

	known, err := s.books.ListByAuthor(ctx, a.NormalizedName)
	if err != nil {
		return nil, fmt.Errorf("load reading history: %w", err)
	}

	key := a.OpenLibraryKey
	if key == "" {
		key, err = s.findAuthorKey(ctx, a.Name, known)
		if err != nil {
			return nil, err
		}
		if err := s.authors.SetOpenLibraryKey(ctx, a.ID, key); err != nil {
			return nil, fmt.Errorf("save author key: %w", err)
		}
	}
	result.OpenLibraryKey = key

	entries, err := s.fetchWorks(ctx, a.ID, key)
	if err != nil {
		return nil, err
	}
	result.EntriesFound = len(entries)

	enriched, extra, err := s.enrichFromGoogleBooks(ctx, a, entries)
	if err != nil {
		// Google Books is best-effort; the Open Library data stands
		// on its own.
		log.Printf("level=warn msg=\"google books enrichment failed\" author=%q err=%v", a.Name, err)
	} else {
		result.Enriched = enriched
		entries = append(entries, extra...)
	}

	for i := range entries {
		if err := s.repo.Upsert(ctx, &entries[i]); err != nil {
			return nil, fmt.Errorf("store entry %q: %w", entries[i].Title, err)
		}
		result.EntriesStored++
	}

	matched, err := s.MatchToHistory(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	result.MatchedToRead = matched

	if err := s.authors.TouchCatalogCheck(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("touch catalog check: %w", err)
	}
	return result, nil
}

// findAuthorKey resolves the Open Library author key by searching for
// the name and checking which candidate's works overlap the books we
// already borrowed. With no overlap anywhere, the top search hit wins.
func (s *Service) findAuthorKey(ctx context.Context, name string, known []book.Book) (string, error) {
	docs, err := s.ol.SearchAuthors(ctx, name)
	if err != nil {
		return "", fmt.Errorf("search author: %w", err)
	}
	if len(docs) == 0 {
		return "", ErrAuthorNotFoundUpstream
	}

	knownTitles := make(map[string]bool, len(known))
	for _, b := range known {
		knownTitles[dedup.NormalizeTitle(b.Title)] = true
	}

	candidates := docs
	if len(candidates) > s.cfg.CandidateAuthors {
		candidates = candidates[:s.cfg.CandidateAuthors]
	}

	if len(knownTitles) > 0 {
		for _, doc := range candidates {
			works, err := s.ol.AuthorWorks(ctx, doc.Key, 50)
			if err != nil {
				continue
			}
			for _, w := range works {
				if knownTitles[dedup.NormalizeTitle(w.Title)] {
					return doc.Key, nil
				}
			}
		}
	}
	return docs[0].Key, nil
}

// fetchWorks pulls the works list and per-work details and editions,
// flattening them into catalog entries.
func (s *Service) fetchWorks(ctx context.Context, authorID, authorKey string) ([]Entry, error) {
	works, err := s.ol.AuthorWorks(ctx, authorKey, s.cfg.WorksLimit)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}

	entries := make([]Entry, 0, len(works))
	for _, w := range works {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}
		e := Entry{
			AuthorID:       authorID,
			Title:          w.Title,
			OpenLibraryKey: w.Key,
			Categories:     strings.Join(w.Subjects, ", "),
		}

		if details, err := s.ol.GetWork(ctx, w.Key); err == nil && details != nil {
			e.Description = details.DescriptionText()
			if len(details.Subjects) > 0 {
				e.Categories = strings.Join(details.Subjects, ", ")
			}
			e.PublicationDate = details.FirstPublishDate
			if len(details.Series) > 0 {
				e.SeriesName = details.Series[0]
			}
		}
		if e.PublicationDate == "" {
			e.PublicationDate = w.FirstPublished
		}

		if e.SeriesName == "" {
			if name, pos, ok := dedup.ExtractSeriesInfo(e.Title); ok {
				e.SeriesName = name
				e.SeriesPosition = pos
			}
		}

		if editions, err := s.ol.WorkEditions(ctx, w.Key); err == nil {
			for _, ed := range editions {
				if !ed.IsEnglish() {
					continue
				}
				if isbn := ed.ISBN(); isbn != "" {
					e.ISBN = dedup.NormalizeISBN(isbn)
					break
				}
			}
		}

		e.NonEnglish = dedup.ClassifyLanguageWith(e.Title, s.cfg.Accent).NonEnglish
		entries = append(entries, e)
	}
	return entries, nil
}

// enrichFromGoogleBooks fills gaps in the Open Library entries from a
// Google Books author search and returns any volumes Open Library
// missed as extra entries.
func (s *Service) enrichFromGoogleBooks(ctx context.Context, a author.Author, entries []Entry) (int, []Entry, error) {
	volumes, err := s.gb.SearchByAuthor(ctx, a.Name, s.cfg.GoogleBooksMax)
	if err != nil {
		return 0, nil, err
	}

	byTitle := make(map[string]*Entry, len(entries))
	for i := range entries {
		byTitle[dedup.NormalizeTitle(entries[i].Title)] = &entries[i]
	}

	fill := func(e *Entry, v googlebooks.Volume) bool {
		changed := false
		if e.GoogleBooksID == "" {
			e.GoogleBooksID = v.ID
			changed = true
		}
		if e.Description == "" && v.VolumeInfo.Description != "" {
			e.Description = v.VolumeInfo.Description
			changed = true
		}
		if e.Categories == "" && len(v.VolumeInfo.Categories) > 0 {
			e.Categories = strings.Join(v.VolumeInfo.Categories, ", ")
			changed = true
		}
		if e.ISBN == "" {
			if isbn := v.ISBN(); isbn != "" {
				e.ISBN = dedup.NormalizeISBN(isbn)
				changed = true
			}
		}
		return changed
	}

	enriched := 0
	var extra []Entry
	// Appending to extra may reallocate it, so extras are addressed by
	// index rather than by pointers taken before the append.
	extraIdx := make(map[string]int)
	for _, v := range volumes {
		title := v.VolumeInfo.Title
		if strings.TrimSpace(title) == "" {
			continue
		}
		norm := dedup.NormalizeTitle(title)
		if e, ok := byTitle[norm]; ok {
			if fill(e, v) {
				enriched++
			}
			continue
		}
		if i, ok := extraIdx[norm]; ok {
			if fill(&extra[i], v) {
				enriched++
			}
			continue
		}
		if !authorMatches(a.Name, v.VolumeInfo.Authors) {
			continue
		}
		ne := Entry{
			AuthorID:        a.ID,
			Title:           title,
			GoogleBooksID:   v.ID,
			Description:     v.VolumeInfo.Description,
			Categories:      strings.Join(v.VolumeInfo.Categories, ", "),
			PublicationDate: v.VolumeInfo.PublishedDate,
			NonEnglish:      !v.IsEnglish() || dedup.ClassifyLanguageWith(title, s.cfg.Accent).NonEnglish,
		}
		if isbn := v.ISBN(); isbn != "" {
			ne.ISBN = dedup.NormalizeISBN(isbn)
		}
		if name, pos, ok := dedup.ExtractSeriesInfo(title); ok {
			ne.SeriesName = name
			ne.SeriesPosition = pos
		}
		extraIdx[norm] = len(extra)
		extra = append(extra, ne)
	}
	return enriched, extra, nil
}

// authorMatches guards against inauthor queries returning co-authored
// or unrelated volumes.
func authorMatches(name string, volumeAuthors []string) bool {
	if len(volumeAuthors) == 0 {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, va := range volumeAuthors {
		if strings.ToLower(strings.TrimSpace(va)) == want {
			return true
		}
	}
	return false
}

// MatchToHistory links catalog entries to already-borrowed books by
// normalized then base title and returns how many new links were made.
func (s *Service) MatchToHistory(ctx context.Context, authorID string) (int, error) {
	a, err := s.authors.GetByID(ctx, authorID)
	if err != nil {
		return 0, err
	}
	entries, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return 0, err
	}
	books, err := s.books.ListByAuthor(ctx, a.NormalizedName)
	if err != nil {
		return 0, err
	}
	if len(books) == 0 {
		return 0, nil
	}

	byNorm := make(map[string]book.Book, len(books))
	byBase := make(map[string]book.Book, len(books))
	for _, b := range books {
		byNorm[dedup.NormalizeTitle(b.Title)] = b
		byBase[strings.ToLower(dedup.BaseTitle(b.Title))] = b
	}

	matched := 0
	for _, e := range entries {
		if e.IsRead {
			continue
		}
		b, ok := byNorm[dedup.NormalizeTitle(e.Title)]
		if !ok {
			b, ok = byBase[strings.ToLower(dedup.BaseTitle(e.Title))]
		}
		if !ok {
			continue
		}
		if err := s.repo.MarkRead(ctx, e.ID, b.ID); err != nil {
			return matched, fmt.Errorf("mark entry read: %w", err)
		}
		matched++
	}
	return matched, nil
}
