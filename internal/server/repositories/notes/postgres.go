package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/models"
)

const selectColumns = `id, user_id, title, content, type, is_pinned, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Note, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM notes
		WHERE user_id = $1
		ORDER BY is_pinned DESC, created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (user_id, title, content, type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + selectColumns
	created, err := scanNote(r.db.QueryRowContext(ctx, query, n.UserID, n.Title, n.Content, n.Kind))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, n *models.Note) (*models.Note, error) {
	query := `
		UPDATE notes
		SET title = $3, content = $4, type = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + selectColumns
	updated, err := scanNote(r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Title, n.Content, n.Kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM notes
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// TogglePin negates the flag in SQL without reading it first.
func (r *PostgresRepository) TogglePin(ctx context.Context, userID, id string) (bool, error) {
	query := `
		UPDATE notes
		SET is_pinned = NOT is_pinned, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING is_pinned
	`
	var pinned bool
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&pinned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return pinned, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func scanNote(s dbx.RowScanner) (*models.Note, error) {
	n := &models.Note{}
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Kind, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}
