package book

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

const bookColumns = `id, title, author, author_raw, publisher, isbn, format, cover_url,
		library, borrowed_at, loan_duration, already_read, created_at, updated_at`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.AuthorRaw, &b.Publisher, &b.ISBN, &b.Format,
		&b.CoverURL, &b.Library, &b.BorrowedAt, &b.LoanDuration, &b.AlreadyRead,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf("author = $%d", argn))
		args = append(args, q.Author)
		argn++
	}

	if q.Format != "" {
		clauses = append(clauses, fmt.Sprintf("format = $%d", argn))
		args = append(args, q.Format)
		argn++
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR publisher ILIKE $%d)", argn, argn+1, argn+2))
		pattern := "%" + q.Q + "%"
		args = append(args, pattern, pattern, pattern)
		argn += 3
	}

	if q.Cursor != "" {
		cur, err := DecodeCursor(q.Cursor)
		if err != nil {
			return nil, 0, fmt.Errorf("decode cursor: %w", err)
		}
		if cur.AfterID != "" {
			clauses = append(clauses, fmt.Sprintf("(borrowed_at, id) < ($%d, $%d)", argn, argn+1))
			args = append(args, cur.BorrowedAt, cur.AfterID)
			argn += 2
		}
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY borrowed_at DESC NULLS LAST, id DESC
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, argn, argn+1)

	offset := q.Offset
	if q.Cursor != "" {
		offset = 0
	}
	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, q.Limit, offset)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE isbn = $1 LIMIT 1`, bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) GetByTitleAuthor(ctx context.Context, title, author string) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE title = $1 AND author = $2 LIMIT 1`, bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, title, author))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) ListByAuthor(ctx context.Context, author string) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE author = $1 ORDER BY borrowed_at DESC NULLS LAST`, bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, author)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Insert(ctx context.Context, b *Book) error {
	const sql = `
		INSERT INTO books (title, author, author_raw, publisher, isbn, format, cover_url,
		                   library, borrowed_at, loan_duration, already_read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, sql,
		b.Title, b.Author, b.AuthorRaw, b.Publisher, b.ISBN, b.Format, b.CoverURL,
		b.Library, b.BorrowedAt, b.LoanDuration, b.AlreadyRead,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books SET
			publisher = $1,
			isbn = $2,
			format = $3,
			cover_url = $4,
			library = $5,
			borrowed_at = $6,
			loan_duration = $7,
			updated_at = NOW()
		WHERE id = $8`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, sql,
		b.Publisher, b.ISBN, b.Format, b.CoverURL, b.Library, b.BorrowedAt, b.LoanDuration, b.ID,
	)
	return err
}
