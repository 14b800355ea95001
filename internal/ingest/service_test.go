package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"readmore/internal/author"
	"readmore/internal/book"
)

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

const sampleCSV = `title,author,publisher,isbn,timestamp,cover,library,details
Storm Front,"Jim Butcher, James Marsters",Penguin Audio,978-0-451-45781-3,"January 12, 2026 02:51",https://img.example/sf.jpg,City Library,14 days
Fool Moon,Jim Butcher,Roc,9780451458124,"March 3, 2025",,City Library,
,Missing Title,Roc,,,,City Library,
`

func TestService_ImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("imports new rows and seeds authors", func(t *testing.T) {
		books := new(mockBookRepo)
		books.On("GetByISBN", ctx, mock.Anything).Return(book.Book{}, book.ErrNotFound)
		books.On("GetByTitleAuthor", ctx, mock.Anything, "jim butcher").Return(book.Book{}, book.ErrNotFound)

		var inserted []book.Book
		books.On("Insert", ctx, mock.AnythingOfType("*book.Book")).Run(func(args mock.Arguments) {
			inserted = append(inserted, *args.Get(1).(*book.Book))
		}).Return(nil)

		authors := new(mockAuthorRepo)
		authors.On("Upsert", ctx, mock.MatchedBy(func(a *author.Author) bool {
			return a.Name == "Jim Butcher" && a.NormalizedName == "jim butcher"
		})).Return(nil).Once()

		svc := NewService(books, authors)
		stats, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV), Options{})
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Rows)
		assert.Equal(t, 2, stats.Imported)
		assert.Equal(t, 1, stats.Skipped) // missing title
		assert.Equal(t, 1, stats.Authors)

		require.Len(t, inserted, 2)
		sf := inserted[0]
		assert.Equal(t, "Storm Front", sf.Title)
		assert.Equal(t, "jim butcher", sf.Author)
		assert.Equal(t, "Jim Butcher, James Marsters", sf.AuthorRaw)
		assert.Equal(t, "9780451457813", sf.ISBN)
		assert.Equal(t, "audiobook", sf.Format)
		require.NotNil(t, sf.BorrowedAt)
		assert.Equal(t, 2026, sf.BorrowedAt.Year())

		assert.Equal(t, "ebook", inserted[1].Format)
		authors.AssertExpectations(t)
	})

	t.Run("existing rows skipped by default", func(t *testing.T) {
		books := new(mockBookRepo)
		books.On("GetByISBN", ctx, "9780451457813").Return(book.Book{ID: "b-1", Title: "Storm Front"}, nil)
		books.On("GetByISBN", ctx, "9780451458124").Return(book.Book{ID: "b-2", Title: "Fool Moon"}, nil)

		authors := new(mockAuthorRepo)
		authors.On("Upsert", ctx, mock.Anything).Return(nil)

		svc := NewService(books, authors)
		stats, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV), Options{})
		require.NoError(t, err)

		assert.Zero(t, stats.Imported)
		assert.Equal(t, 3, stats.Skipped) // two existing plus the bad row
		books.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		books.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("update mode fills blanks on existing rows", func(t *testing.T) {
		existing := book.Book{ID: "b-1", Title: "Storm Front", Author: "jim butcher", Format: "unknown"}
		books := new(mockBookRepo)
		books.On("GetByISBN", ctx, "9780451457813").Return(existing, nil)
		books.On("GetByISBN", ctx, "9780451458124").Return(book.Book{}, book.ErrNotFound)
		books.On("GetByTitleAuthor", ctx, "Fool Moon", "jim butcher").Return(book.Book{}, book.ErrNotFound)
		books.On("Insert", ctx, mock.Anything).Return(nil)

		var updated book.Book
		books.On("Update", ctx, mock.AnythingOfType("*book.Book")).Run(func(args mock.Arguments) {
			updated = *args.Get(1).(*book.Book)
		}).Return(nil)

		authors := new(mockAuthorRepo)
		authors.On("Upsert", ctx, mock.Anything).Return(nil)

		svc := NewService(books, authors)
		stats, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV), Options{UpdateExisting: true})
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Updated)
		assert.Equal(t, 1, stats.Imported)
		assert.Equal(t, "b-1", updated.ID)
		assert.Equal(t, "audiobook", updated.Format)
		assert.Equal(t, "Penguin Audio", updated.Publisher)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		books := new(mockBookRepo)
		books.On("GetByISBN", ctx, mock.Anything).Return(book.Book{}, book.ErrNotFound)
		books.On("GetByTitleAuthor", ctx, mock.Anything, mock.Anything).Return(book.Book{}, book.ErrNotFound)

		authors := new(mockAuthorRepo)

		svc := NewService(books, authors)
		stats, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV), Options{DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Imported)
		books.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		authors.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("missing required columns", func(t *testing.T) {
		svc := NewService(new(mockBookRepo), new(mockAuthorRepo))
		_, err := svc.ImportCSV(ctx, strings.NewReader("isbn,publisher\n123,Roc\n"), Options{})
		assert.ErrorIs(t, err, ErrMissingColumns)
	})
}
