package transactions

import (
	"context"
	"fmt"

	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/models"
)

const selectColumns = `id, user_id, title, description, amount, type, category, date::text, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO finances (user_id, title, description, amount, type, category, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Title, t.Description, t.Amount, t.Kind, t.Category, t.Date).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM finances
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByDateRange(ctx context.Context, userID, from, to string) ([]models.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM finances
		WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date DESC, created_at DESC
	`
	return r.list(ctx, query, userID, from, to)
}

func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM finances
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func scanTransaction(s dbx.RowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Amount, &t.Kind, &t.Category, &t.Date, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
