package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const entryColumns = `id, author_id, title, isbn, series_name, series_position,
		open_library_key, google_books_id, description, categories, publication_date,
		non_english, is_read, matched_book_id, fetched_at, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.AuthorID, &e.Title, &e.ISBN, &e.SeriesName, &e.SeriesPosition,
		&e.OpenLibraryKey, &e.GoogleBooksID, &e.Description, &e.Categories,
		&e.PublicationDate, &e.NonEnglish, &e.IsRead, &e.MatchedBookID,
		&e.FetchedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *PostgresRepo) ListByAuthor(ctx context.Context, authorID string) ([]Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM author_catalog_entries WHERE author_id = $1 ORDER BY series_name NULLS LAST, series_position, title",
		entryColumns,
	)
	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM author_catalog_entries WHERE id = $1", entryColumns)
	e, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get catalog entry: %w", err)
	}
	return e, nil
}

// Upsert inserts the entry or refreshes its metadata, keyed on
// (author_id, title). Read state is never overwritten by a refetch.
func (r *PostgresRepo) Upsert(ctx context.Context, e *Entry) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO author_catalog_entries (
			author_id, title, isbn, series_name, series_position,
			open_library_key, google_books_id, description, categories,
			publication_date, non_english, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (author_id, title) DO UPDATE SET
			isbn = COALESCE(NULLIF(EXCLUDED.isbn, ''), author_catalog_entries.isbn),
			series_name = COALESCE(NULLIF(EXCLUDED.series_name, ''), author_catalog_entries.series_name),
			series_position = GREATEST(EXCLUDED.series_position, author_catalog_entries.series_position),
			open_library_key = COALESCE(NULLIF(EXCLUDED.open_library_key, ''), author_catalog_entries.open_library_key),
			google_books_id = COALESCE(NULLIF(EXCLUDED.google_books_id, ''), author_catalog_entries.google_books_id),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), author_catalog_entries.description),
			categories = COALESCE(NULLIF(EXCLUDED.categories, ''), author_catalog_entries.categories),
			publication_date = COALESCE(NULLIF(EXCLUDED.publication_date, ''), author_catalog_entries.publication_date),
			non_english = EXCLUDED.non_english,
			fetched_at = NOW(),
			updated_at = NOW()
		RETURNING id, is_read, matched_book_id, fetched_at, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		e.AuthorID, e.Title, e.ISBN, e.SeriesName, e.SeriesPosition,
		e.OpenLibraryKey, e.GoogleBooksID, e.Description, e.Categories,
		e.PublicationDate, e.NonEnglish,
	).Scan(&e.ID, &e.IsRead, &e.MatchedBookID, &e.FetchedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, "DELETE FROM author_catalog_entries WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("delete catalog entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) SetSeriesName(ctx context.Context, ids []string, name string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx,
		"UPDATE author_catalog_entries SET series_name = $2, updated_at = NOW() WHERE id = ANY($1)",
		ids, name)
	if err != nil {
		return fmt.Errorf("set series name: %w", err)
	}
	return nil
}

func (r *PostgresRepo) MarkRead(ctx context.Context, id string, matchedBookID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		"UPDATE author_catalog_entries SET is_read = TRUE, matched_book_id = $2, updated_at = NOW() WHERE id = $1",
		id, matchedBookID)
	if err != nil {
		return fmt.Errorf("mark entry read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetNonEnglish(ctx context.Context, ids []string, nonEnglish bool) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx,
		"UPDATE author_catalog_entries SET non_english = $2, updated_at = NOW() WHERE id = ANY($1)",
		ids, nonEnglish)
	if err != nil {
		return fmt.Errorf("set non english: %w", err)
	}
	return nil
}
