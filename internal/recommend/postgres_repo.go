package recommend

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

const recColumns = `r.id, r.author_id, a.name, r.entry_id, r.title, r.isbn, r.series_name,
		r.score, r.reason, r.fiction, r.non_english, r.feedback, r.created_at, r.updated_at`

func scanRec(row pgx.Row) (Recommendation, error) {
	var rec Recommendation
	err := row.Scan(
		&rec.ID, &rec.AuthorID, &rec.AuthorName, &rec.EntryID, &rec.Title, &rec.ISBN,
		&rec.SeriesName, &rec.Score, &rec.Reason, &rec.Fiction, &rec.NonEnglish,
		&rec.Feedback, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Recommendation, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.AuthorID != "" {
		clauses = append(clauses, fmt.Sprintf("r.author_id = $%d", argn))
		args = append(args, q.AuthorID)
		argn++
	}
	if q.Feedback != "" {
		clauses = append(clauses, fmt.Sprintf("r.feedback = $%d", argn))
		args = append(args, q.Feedback)
		argn++
	} else if !q.IncludeDownvoted {
		clauses = append(clauses, "r.feedback <> 'down'")
	}
	if q.FictionOnly {
		clauses = append(clauses, "r.fiction = TRUE")
	}
	if !q.IncludeNonEnglish {
		clauses = append(clauses, "r.non_english = FALSE")
	}

	where := strings.Join(clauses, " AND ")

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM recommendations r JOIN authors a ON a.id = r.author_id WHERE " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recommendations: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM recommendations r
		JOIN authors a ON a.id = r.author_id
		WHERE %s
		ORDER BY r.score DESC, a.name, r.series_name NULLS LAST, r.title
		LIMIT $%d OFFSET $%d`, recColumns, where, argn, argn+1)
	args = append(args, limit, q.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		rec, err := scanRec(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Recommendation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM recommendations r JOIN authors a ON a.id = r.author_id WHERE r.id = $1",
		recColumns,
	)
	rec, err := scanRec(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recommendation{}, ErrNotFound
		}
		return Recommendation{}, fmt.Errorf("get recommendation: %w", err)
	}
	return rec, nil
}

// Upsert inserts or refreshes a recommendation keyed on its catalog
// entry. Feedback is preserved across regeneration.
func (r *PostgresRepo) Upsert(ctx context.Context, rec *Recommendation) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO recommendations (
			author_id, entry_id, title, isbn, series_name, score, reason,
			fiction, non_english
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (entry_id) DO UPDATE SET
			title = EXCLUDED.title,
			isbn = EXCLUDED.isbn,
			series_name = EXCLUDED.series_name,
			score = EXCLUDED.score,
			reason = EXCLUDED.reason,
			fiction = EXCLUDED.fiction,
			non_english = EXCLUDED.non_english,
			updated_at = NOW()
		RETURNING id, feedback, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		rec.AuthorID, rec.EntryID, rec.Title, rec.ISBN, rec.SeriesName,
		rec.Score, rec.Reason, rec.Fiction, rec.NonEnglish,
	).Scan(&rec.ID, &rec.Feedback, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert recommendation: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetFeedback(ctx context.Context, id string, feedback string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		"UPDATE recommendations SET feedback = $2, updated_at = NOW() WHERE id = $1", id, feedback)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, "DELETE FROM recommendations WHERE author_id = $1", authorID)
	if err != nil {
		return 0, fmt.Errorf("delete recommendations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) CountReadByAuthor(ctx context.Context, authorID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM author_catalog_entries WHERE author_id = $1 AND is_read", authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count read entries: %w", err)
	}
	return n, nil
}
