package author

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const authorColumns = `a.id, a.name, a.normalized_name, a.open_library_key, a.last_catalog_check,
		a.hidden, a.hidden_at, a.created_at, a.updated_at,
		(SELECT COUNT(*) FROM books b WHERE b.author = a.normalized_name) AS book_count,
		(SELECT COUNT(*) FROM author_catalog_entries e WHERE e.author_id = a.id) AS catalog_count`

func scanAuthor(row pgx.Row) (Author, error) {
	var a Author
	err := row.Scan(
		&a.ID, &a.Name, &a.NormalizedName, &a.OpenLibraryKey, &a.LastCatalogCheck,
		&a.Hidden, &a.HiddenAt, &a.CreatedAt, &a.UpdatedAt,
		&a.BookCount, &a.CatalogCount,
	)
	return a, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Author, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if !q.IncludeHidden {
		clauses = append(clauses, "a.hidden = FALSE")
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("a.name ILIKE $%d", argn))
		args = append(args, "%"+q.Q+"%")
		argn++
	}

	where := strings.Join(clauses, " AND ")

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM authors a WHERE " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT %s FROM authors a WHERE %s ORDER BY a.name ASC LIMIT $%d OFFSET $%d",
		authorColumns, where, argn, argn+1,
	)
	args = append(args, limit, q.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, total, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM authors a WHERE a.id = $1", authorColumns)
	a, err := scanAuthor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, fmt.Errorf("get author: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) GetByNormalized(ctx context.Context, normalized string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM authors a WHERE a.normalized_name = $1", authorColumns)
	a, err := scanAuthor(r.db.QueryRow(ctx, query, normalized))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, fmt.Errorf("get author by name: %w", err)
	}
	return a, nil
}

// Upsert inserts the author or refreshes the display name on conflict.
// The ID and timestamps are written back onto a.
func (r *PostgresRepo) Upsert(ctx context.Context, a *Author) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO authors (name, normalized_name)
		VALUES ($1, $2)
		ON CONFLICT (normalized_name) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, a.Name, a.NormalizedName).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert author: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetHidden(ctx context.Context, id string, hidden bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE authors
		SET hidden = $2,
			hidden_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, hidden)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetOpenLibraryKey(ctx context.Context, id string, key string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		"UPDATE authors SET open_library_key = $2, updated_at = NOW() WHERE id = $1", id, key)
	if err != nil {
		return fmt.Errorf("set open library key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) TouchCatalogCheck(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		"UPDATE authors SET last_catalog_check = NOW(), updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("touch catalog check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
