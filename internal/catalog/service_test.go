package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"readmore/internal/author"
	"readmore/internal/book"
	"readmore/internal/platform/googlebooks"
	"readmore/internal/platform/openlibrary"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListByAuthor(ctx context.Context, authorID string) ([]Entry, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Entry), args.Error(1)
}

func (m *mockRepo) Upsert(ctx context.Context, e *Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) SetSeriesName(ctx context.Context, ids []string, name string) error {
	args := m.Called(ctx, ids, name)
	return args.Error(0)
}

func (m *mockRepo) MarkRead(ctx context.Context, id string, matchedBookID string) error {
	args := m.Called(ctx, id, matchedBookID)
	return args.Error(0)
}

func (m *mockRepo) SetNonEnglish(ctx context.Context, ids []string, nonEnglish bool) error {
	args := m.Called(ctx, ids, nonEnglish)
	return args.Error(0)
}

type mockAuthorRepo struct {
	mock.Mock
}

func (m *mockAuthorRepo) List(ctx context.Context, q author.Query) ([]author.Author, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]author.Author), args.Int(1), args.Error(2)
}

func (m *mockAuthorRepo) GetByID(ctx context.Context, id string) (author.Author, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(author.Author), args.Error(1)
}

func (m *mockAuthorRepo) GetByNormalized(ctx context.Context, normalized string) (author.Author, error) {
	args := m.Called(ctx, normalized)
	return args.Get(0).(author.Author), args.Error(1)
}

func (m *mockAuthorRepo) Upsert(ctx context.Context, a *author.Author) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAuthorRepo) SetHidden(ctx context.Context, id string, hidden bool) error {
	args := m.Called(ctx, id, hidden)
	return args.Error(0)
}

func (m *mockAuthorRepo) SetOpenLibraryKey(ctx context.Context, id string, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *mockAuthorRepo) TouchCatalogCheck(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockBookRepo struct {
	mock.Mock
}

func (m *mockBookRepo) List(ctx context.Context, q book.Query) ([]book.Book, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]book.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepo) GetByISBN(ctx context.Context, isbn string) (book.Book, error) {
	args := m.Called(ctx, isbn)
	return args.Get(0).(book.Book), args.Error(1)
}

func (m *mockBookRepo) GetByTitleAuthor(ctx context.Context, title, authorName string) (book.Book, error) {
	args := m.Called(ctx, title, authorName)
	return args.Get(0).(book.Book), args.Error(1)
}

func (m *mockBookRepo) ListByAuthor(ctx context.Context, authorName string) ([]book.Book, error) {
	args := m.Called(ctx, authorName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]book.Book), args.Error(1)
}

func (m *mockBookRepo) Insert(ctx context.Context, b *book.Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookRepo) Update(ctx context.Context, b *book.Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type mockOLClient struct {
	mock.Mock
}

func (m *mockOLClient) SearchAuthors(ctx context.Context, name string) ([]openlibrary.AuthorDoc, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openlibrary.AuthorDoc), args.Error(1)
}

func (m *mockOLClient) AuthorWorks(ctx context.Context, authorKey string, limit int) ([]openlibrary.Work, error) {
	args := m.Called(ctx, authorKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openlibrary.Work), args.Error(1)
}

func (m *mockOLClient) GetWork(ctx context.Context, workKey string) (*openlibrary.WorkDetails, error) {
	args := m.Called(ctx, workKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.WorkDetails), args.Error(1)
}

func (m *mockOLClient) WorkEditions(ctx context.Context, workKey string) ([]openlibrary.Edition, error) {
	args := m.Called(ctx, workKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openlibrary.Edition), args.Error(1)
}

type mockGBClient struct {
	mock.Mock
}

func (m *mockGBClient) SearchByAuthor(ctx context.Context, authorName string, maxResults int) ([]googlebooks.Volume, error) {
	args := m.Called(ctx, authorName, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]googlebooks.Volume), args.Error(1)
}

func (m *mockGBClient) GetByISBN(ctx context.Context, isbn string) (*googlebooks.Volume, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*googlebooks.Volume), args.Error(1)
}

func newTestService(repo *mockRepo, authors *mockAuthorRepo, books *mockBookRepo, ol *mockOLClient, gb *mockGBClient) *Service {
	return NewService(repo, authors, books, ol, gb, DefaultConfig())
}

func TestService_FetchAuthorCatalog_Freshness(t *testing.T) {
	ctx := context.Background()

	t.Run("recent check is skipped", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		checked := time.Now().Add(-2 * time.Hour)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{
			ID: "a-1", Name: "Jim Butcher", NormalizedName: "jim butcher",
			CatalogCount: 40, LastCatalogCheck: &checked,
		}, nil)

		svc := newTestService(new(mockRepo), authors, new(mockBookRepo), new(mockOLClient), new(mockGBClient))
		result, err := svc.FetchAuthorCatalog(ctx, "a-1", false)
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Contains(t, result.SkipReason, "hours ago")
	})

	t.Run("empty catalog is fetched even when recently checked", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		checked := time.Now().Add(-2 * time.Hour)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{
			ID: "a-1", Name: "Jim Butcher", NormalizedName: "jim butcher",
			OpenLibraryKey: "OL12345A", CatalogCount: 0, LastCatalogCheck: &checked,
		}, nil)
		authors.On("TouchCatalogCheck", ctx, "a-1").Return(nil)

		books := new(mockBookRepo)
		books.On("ListByAuthor", ctx, "jim butcher").Return([]book.Book{}, nil)

		ol := new(mockOLClient)
		ol.On("AuthorWorks", ctx, "OL12345A", 200).Return([]openlibrary.Work{}, nil)

		gb := new(mockGBClient)
		gb.On("SearchByAuthor", ctx, "Jim Butcher", 40).Return([]googlebooks.Volume{}, nil)

		repo := new(mockRepo)
		repo.On("ListByAuthor", ctx, "a-1").Return([]Entry{}, nil)

		svc := newTestService(repo, authors, books, ol, gb)
		result, err := svc.FetchAuthorCatalog(ctx, "a-1", false)
		require.NoError(t, err)
		assert.False(t, result.Skipped)
	})

	t.Run("hidden author refuses fetch", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{ID: "a-1", Hidden: true}, nil)

		svc := newTestService(new(mockRepo), authors, new(mockBookRepo), new(mockOLClient), new(mockGBClient))
		_, err := svc.FetchAuthorCatalog(ctx, "a-1", false)
		assert.ErrorIs(t, err, ErrAuthorHidden)
	})
}

func TestService_FindAuthorKey(t *testing.T) {
	ctx := context.Background()

	t.Run("candidate with overlapping works wins over top hit", func(t *testing.T) {
		ol := new(mockOLClient)
		ol.On("SearchAuthors", ctx, "John Smith").Return([]openlibrary.AuthorDoc{
			{Key: "OL1A", Name: "John Smith"},
			{Key: "OL2A", Name: "John Smith"},
		}, nil)
		ol.On("AuthorWorks", ctx, "OL1A", 50).Return([]openlibrary.Work{
			{Key: "/works/OL10W", Title: "Gardening Basics"},
		}, nil)
		ol.On("AuthorWorks", ctx, "OL2A", 50).Return([]openlibrary.Work{
			{Key: "/works/OL20W", Title: "Storm Front"},
		}, nil)

		svc := newTestService(new(mockRepo), new(mockAuthorRepo), new(mockBookRepo), ol, new(mockGBClient))
		key, err := svc.findAuthorKey(ctx, "John Smith", []book.Book{{Title: "Storm Front"}})
		require.NoError(t, err)
		assert.Equal(t, "OL2A", key)
	})

	t.Run("no overlap falls back to first result", func(t *testing.T) {
		ol := new(mockOLClient)
		ol.On("SearchAuthors", ctx, "John Smith").Return([]openlibrary.AuthorDoc{
			{Key: "OL1A", Name: "John Smith"},
			{Key: "OL2A", Name: "John Smith"},
		}, nil)
		ol.On("AuthorWorks", ctx, mock.Anything, 50).Return([]openlibrary.Work{}, nil)

		svc := newTestService(new(mockRepo), new(mockAuthorRepo), new(mockBookRepo), ol, new(mockGBClient))
		key, err := svc.findAuthorKey(ctx, "John Smith", []book.Book{{Title: "Storm Front"}})
		require.NoError(t, err)
		assert.Equal(t, "OL1A", key)
	})

	t.Run("no search results is an upstream miss", func(t *testing.T) {
		ol := new(mockOLClient)
		ol.On("SearchAuthors", ctx, "Nobody").Return([]openlibrary.AuthorDoc{}, nil)

		svc := newTestService(new(mockRepo), new(mockAuthorRepo), new(mockBookRepo), ol, new(mockGBClient))
		_, err := svc.findAuthorKey(ctx, "Nobody", nil)
		assert.ErrorIs(t, err, ErrAuthorNotFoundUpstream)
	})
}

func TestService_FetchAuthorCatalog_MergesSources(t *testing.T) {
	ctx := context.Background()

	authors := new(mockAuthorRepo)
	authors.On("GetByID", ctx, "a-1").Return(author.Author{
		ID: "a-1", Name: "Jim Butcher", NormalizedName: "jim butcher",
		OpenLibraryKey: "OL12345A",
	}, nil)
	authors.On("TouchCatalogCheck", ctx, "a-1").Return(nil)

	books := new(mockBookRepo)
	books.On("ListByAuthor", ctx, "jim butcher").Return([]book.Book{
		{ID: "b-1", Title: "Storm Front"},
	}, nil)

	ol := new(mockOLClient)
	ol.On("AuthorWorks", ctx, "OL12345A", 200).Return([]openlibrary.Work{
		{Key: "/works/OL1W", Title: "Storm Front", FirstPublished: "2000"},
		{Key: "/works/OL2W", Title: "Fool Moon"},
	}, nil)
	ol.On("GetWork", ctx, mock.Anything).Return(nil, assert.AnError)
	ol.On("WorkEditions", ctx, "/works/OL1W").Return([]openlibrary.Edition{
		{ISBN13: []string{"9780451457813"}},
	}, nil)
	ol.On("WorkEditions", ctx, "/works/OL2W").Return([]openlibrary.Edition{}, nil)

	gb := new(mockGBClient)
	gb.On("SearchByAuthor", ctx, "Jim Butcher", 40).Return([]googlebooks.Volume{
		{
			ID: "gb-1",
			VolumeInfo: googlebooks.VolumeInfo{
				Title:       "Fool Moon",
				Authors:     []string{"Jim Butcher"},
				Description: "Book two of the Dresden Files.",
				Categories:  []string{"Fiction"},
				Language:    "en",
			},
		},
		{
			ID: "gb-2",
			VolumeInfo: googlebooks.VolumeInfo{
				Title:    "Summer Knight",
				Authors:  []string{"Jim Butcher"},
				Language: "en",
			},
		},
		{
			ID: "gb-3",
			VolumeInfo: googlebooks.VolumeInfo{
				Title:   "Unrelated Anthology",
				Authors: []string{"Someone Else"},
			},
		},
	}, nil)

	repo := new(mockRepo)
	var stored []Entry
	repo.On("Upsert", ctx, mock.AnythingOfType("*catalog.Entry")).Run(func(args mock.Arguments) {
		e := args.Get(1).(*Entry)
		e.ID = "e-" + e.Title
		stored = append(stored, *e)
	}).Return(nil)
	repo.On("ListByAuthor", ctx, "a-1").Return([]Entry{
		{ID: "e-Storm Front", AuthorID: "a-1", Title: "Storm Front"},
		{ID: "e-Fool Moon", AuthorID: "a-1", Title: "Fool Moon"},
		{ID: "e-Summer Knight", AuthorID: "a-1", Title: "Summer Knight"},
	}, nil)
	repo.On("MarkRead", ctx, "e-Storm Front", "b-1").Return(nil)

	svc := newTestService(repo, authors, books, ol, gb)
	result, err := svc.FetchAuthorCatalog(ctx, "a-1", false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.EntriesFound)
	assert.Equal(t, 3, result.EntriesStored) // two OL works plus one GB-only volume
	assert.Equal(t, 1, result.Enriched)      // Fool Moon got gb-1's metadata
	assert.Equal(t, 1, result.MatchedToRead)

	byTitle := map[string]Entry{}
	for _, e := range stored {
		byTitle[e.Title] = e
	}
	assert.Equal(t, "9780451457813", byTitle["Storm Front"].ISBN)
	assert.Equal(t, "gb-1", byTitle["Fool Moon"].GoogleBooksID)
	assert.Equal(t, "Book two of the Dresden Files.", byTitle["Fool Moon"].Description)
	assert.Equal(t, "gb-2", byTitle["Summer Knight"].GoogleBooksID)
	assert.NotContains(t, byTitle, "Unrelated Anthology")

	repo.AssertExpectations(t)
	authors.AssertExpectations(t)
}

func TestService_EnrichFromGoogleBooks_LaterVolumeFillsEarlierExtra(t *testing.T) {
	ctx := context.Background()

	// Three author-only volumes grow the extras slice before a fourth
	// volume resolves to the same normalized title as the first. The
	// fill must land in the extras slice as finally returned, not in an
	// earlier backing array.
	gb := new(mockGBClient)
	gb.On("SearchByAuthor", ctx, "Jim Butcher", 40).Return([]googlebooks.Volume{
		{
			ID: "gb-1",
			VolumeInfo: googlebooks.VolumeInfo{
				Title: "Alpha", Authors: []string{"Jim Butcher"}, Language: "en",
			},
		},
		{
			ID: "gb-2",
			VolumeInfo: googlebooks.VolumeInfo{
				Title: "Beta", Authors: []string{"Jim Butcher"}, Language: "en",
			},
		},
		{
			ID: "gb-3",
			VolumeInfo: googlebooks.VolumeInfo{
				Title: "Gamma", Authors: []string{"Jim Butcher"}, Language: "en",
			},
		},
		{
			ID: "gb-4",
			VolumeInfo: googlebooks.VolumeInfo{
				Title:       "Alpha (Special Edition)",
				Authors:     []string{"Jim Butcher"},
				Description: "Expanded with author notes.",
				Language:    "en",
			},
		},
	}, nil)

	svc := newTestService(new(mockRepo), new(mockAuthorRepo), new(mockBookRepo), new(mockOLClient), gb)
	enriched, extra, err := svc.enrichFromGoogleBooks(ctx, author.Author{ID: "a-1", Name: "Jim Butcher"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, enriched)
	require.Len(t, extra, 3)
	assert.Equal(t, "Alpha", extra[0].Title)
	assert.Equal(t, "gb-1", extra[0].GoogleBooksID)
	assert.Equal(t, "Expanded with author notes.", extra[0].Description)
}
