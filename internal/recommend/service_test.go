package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"readmore/internal/author"
	"readmore/internal/book"
	"readmore/internal/catalog"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) List(ctx context.Context, q Query) ([]Recommendation, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Recommendation), args.Int(1), args.Error(2)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (Recommendation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Recommendation), args.Error(1)
}

func (m *mockRepo) Upsert(ctx context.Context, rec *Recommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRepo) SetFeedback(ctx context.Context, id string, feedback string) error {
	args := m.Called(ctx, id, feedback)
	return args.Error(0)
}

func (m *mockRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) CountReadByAuthor(ctx context.Context, authorID string) (int, error) {
	args := m.Called(ctx, authorID)
	return args.Int(0), args.Error(1)
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

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) ListByAuthor(ctx context.Context, authorID string) ([]catalog.Entry, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Entry), args.Error(1)
}

func (m *mockCatalogRepo) GetByID(ctx context.Context, id string) (catalog.Entry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Entry), args.Error(1)
}

func (m *mockCatalogRepo) Upsert(ctx context.Context, e *catalog.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockCatalogRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCatalogRepo) SetSeriesName(ctx context.Context, ids []string, name string) error {
	args := m.Called(ctx, ids, name)
	return args.Error(0)
}

func (m *mockCatalogRepo) MarkRead(ctx context.Context, id string, matchedBookID string) error {
	args := m.Called(ctx, id, matchedBookID)
	return args.Error(0)
}

func (m *mockCatalogRepo) SetNonEnglish(ctx context.Context, ids []string, nonEnglish bool) error {
	args := m.Called(ctx, ids, nonEnglish)
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

func TestService_GenerateForAuthor(t *testing.T) {
	ctx := context.Background()

	t.Run("unread english entries become recommendations", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{
			ID: "a-1", Name: "Jim Butcher", NormalizedName: "jim butcher",
		}, nil)

		catalogs := new(mockCatalogRepo)
		catalogs.On("ListByAuthor", ctx, "a-1").Return([]catalog.Entry{
			{ID: "e-1", Title: "Storm Front", IsRead: true},
			{ID: "e-2", Title: "Fool Moon", Categories: "Fiction, Fantasy"},
			{ID: "e-3", Title: "Tormenta (Spanish Edition)", NonEnglish: true},
		}, nil)

		books := new(mockBookRepo)
		books.On("ListByAuthor", ctx, "jim butcher").Return([]book.Book{
			{ID: "b-1", Title: "Storm Front"},
			{ID: "b-2", Title: "Side Jobs"},
		}, nil)

		repo := new(mockRepo)
		var stored []Recommendation
		repo.On("Upsert", ctx, mock.AnythingOfType("*recommend.Recommendation")).Run(func(args mock.Arguments) {
			stored = append(stored, *args.Get(1).(*Recommendation))
		}).Return(nil)

		svc := NewService(repo, authors, catalogs, books)
		result, err := svc.GenerateForAuthor(ctx, "a-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Generated)

		require.Len(t, stored, 1)
		rec := stored[0]
		assert.Equal(t, "Fool Moon", rec.Title)
		assert.Equal(t, "e-2", rec.EntryID)
		assert.Equal(t, 0.95, rec.Score)
		assert.Equal(t, "You've listened to 2 other books by Jim Butcher", rec.Reason)
		assert.True(t, rec.Fiction)
	})

	t.Run("single borrowed book phrasing", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{
			ID: "a-1", Name: "Ann Leckie", NormalizedName: "ann leckie",
		}, nil)

		catalogs := new(mockCatalogRepo)
		catalogs.On("ListByAuthor", ctx, "a-1").Return([]catalog.Entry{
			{ID: "e-1", Title: "Ancillary Sword"},
		}, nil)

		books := new(mockBookRepo)
		books.On("ListByAuthor", ctx, "ann leckie").Return([]book.Book{
			{ID: "b-1", Title: "Ancillary Justice"},
		}, nil)

		repo := new(mockRepo)
		repo.On("Upsert", ctx, mock.MatchedBy(func(rec *Recommendation) bool {
			return rec.Reason == "You've listened to another book by Ann Leckie"
		})).Return(nil)

		svc := NewService(repo, authors, catalogs, books)
		result, err := svc.GenerateForAuthor(ctx, "a-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Generated)
		repo.AssertExpectations(t)
	})

	t.Run("hidden author is skipped", func(t *testing.T) {
		authors := new(mockAuthorRepo)
		authors.On("GetByID", ctx, "a-1").Return(author.Author{ID: "a-1", Hidden: true}, nil)

		svc := NewService(new(mockRepo), authors, new(mockCatalogRepo), new(mockBookRepo))
		result, err := svc.GenerateForAuthor(ctx, "a-1")
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Zero(t, result.Generated)
	})
}

func TestService_SetFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("up is stored", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("SetFeedback", ctx, "r-1", "up").Return(nil)

		svc := NewService(repo, new(mockAuthorRepo), new(mockCatalogRepo), new(mockBookRepo))
		require.NoError(t, svc.SetFeedback(ctx, "r-1", "up"))
		repo.AssertExpectations(t)
	})

	t.Run("clear empties the stored value", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("SetFeedback", ctx, "r-1", "").Return(nil)

		svc := NewService(repo, new(mockAuthorRepo), new(mockCatalogRepo), new(mockBookRepo))
		require.NoError(t, svc.SetFeedback(ctx, "r-1", "clear"))
		repo.AssertExpectations(t)
	})

	t.Run("junk value rejected", func(t *testing.T) {
		svc := NewService(new(mockRepo), new(mockAuthorRepo), new(mockCatalogRepo), new(mockBookRepo))
		err := svc.SetFeedback(ctx, "r-1", "meh")
		assert.ErrorIs(t, err, ErrBadFeedback)
	})
}

func TestService_SeriesProgressForAuthor(t *testing.T) {
	ctx := context.Background()

	authors := new(mockAuthorRepo)
	authors.On("GetByID", ctx, "a-1").Return(author.Author{ID: "a-1", Name: "Jim Butcher"}, nil)

	catalogs := new(mockCatalogRepo)
	catalogs.On("ListByAuthor", ctx, "a-1").Return([]catalog.Entry{
		{ID: "e-1", Title: "Storm Front", SeriesName: "The Dresden Files", SeriesPosition: 1, IsRead: true},
		{ID: "e-2", Title: "Fool Moon", SeriesName: "Dresden Files", SeriesPosition: 2},
		{ID: "e-3", Title: "Grave Peril", SeriesName: "The Dresden Files", SeriesPosition: 3},
		{ID: "e-4", Title: "Furies of Calderon", SeriesName: "Codex Alera", SeriesPosition: 1},
		{ID: "e-5", Title: "Standalone Novel"},
	}, nil)

	svc := NewService(new(mockRepo), authors, catalogs, new(mockBookRepo))
	progress, err := svc.SeriesProgressForAuthor(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, progress, 2)

	dresden := progress[0]
	assert.Equal(t, "The Dresden Files", dresden.SeriesName)
	assert.Equal(t, 3, dresden.Total)
	assert.Equal(t, 1, dresden.Read)
	assert.Equal(t, SeriesPartial, dresden.State)
	assert.Equal(t, "Fool Moon", dresden.NextUnread)

	alera := progress[1]
	assert.Equal(t, SeriesNotStarted, alera.State)
	assert.Equal(t, "Furies of Calderon", alera.NextUnread)
}
