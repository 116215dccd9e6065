package media

import (
	"context"
	"fmt"

	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/models"
)

const selectColumns = `id, user_id, title, description, cover_url, external_url, platform, playlist_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string, playlistID *string) ([]models.MediaItem, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM media_library
		WHERE user_id = $1 AND ($2::uuid IS NULL OR playlist_id = $2::uuid)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, playlistID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.MediaItem, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.MediaItem) (*models.MediaItem, error) {
	query := `
		INSERT INTO media_library (user_id, title, description, cover_url, external_url, platform, playlist_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + selectColumns
	created, err := scanMedia(r.db.QueryRowContext(ctx, query,
		m.UserID, m.Title, m.Description, m.CoverURL, m.ExternalURL, m.Platform, m.PlaylistID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM media_library
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetPlaylist(ctx context.Context, userID, id string, playlistID *string) error {
	query := `
		UPDATE media_library
		SET playlist_id = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, playlistID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func scanMedia(s dbx.RowScanner) (*models.MediaItem, error) {
	m := &models.MediaItem{}
	err := s.Scan(&m.ID, &m.UserID, &m.Title, &m.Description, &m.CoverURL, &m.ExternalURL, &m.Platform,
		&m.PlaylistID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
