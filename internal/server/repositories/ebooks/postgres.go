package ebooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/models"
)

const selectColumns = `id, user_id, remote_file_id, title, author, thumbnail_url, file_type, file_size_bytes,
	total_pages, reading_progress, status, last_read_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Ebook, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM ebooks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Ebook, 0)
	for rows.Next() {
		e, err := scanEbook(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	query := `SELECT count(*) FROM ebooks WHERE user_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Ebook, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM ebooks
		WHERE id = $1 AND user_id = $2
	`
	e, err := scanEbook(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Ebook) (*models.Ebook, error) {
	query := `
		INSERT INTO ebooks (user_id, remote_file_id, title, author, thumbnail_url, file_type, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + selectColumns
	created, err := scanEbook(r.db.QueryRowContext(ctx, query,
		e.UserID, e.RemoteFileID, e.Title, e.Author, e.ThumbnailURL, e.FileType, e.SizeBytes))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, e *models.Ebook) (bool, error) {
	query := `
		INSERT INTO ebooks (user_id, remote_file_id, title, author, thumbnail_url, file_type, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, remote_file_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		e.UserID, e.RemoteFileID, e.Title, e.Author, e.ThumbnailURL, e.FileType, e.SizeBytes)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) RemoteFileIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT remote_file_id FROM ebooks WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) UpdateProgress(ctx context.Context, userID, id string, p models.ReadingProgress, status models.EbookStatus, at time.Time) error {
	progress, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	query := `
		UPDATE ebooks
		SET reading_progress = $3::jsonb, status = $4, last_read_at = $5
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, string(progress), status, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM ebooks
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanEbook(s dbx.RowScanner) (*models.Ebook, error) {
	e := &models.Ebook{}
	var progress []byte
	err := s.Scan(&e.ID, &e.UserID, &e.RemoteFileID, &e.Title, &e.Author, &e.ThumbnailURL, &e.FileType,
		&e.SizeBytes, &e.TotalPages, &progress, &e.Status, &e.LastReadAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &e.ReadingProgress); err != nil {
			return nil, fmt.Errorf("decode reading_progress: %w", err)
		}
	}
	return e, nil
}
