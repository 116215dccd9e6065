package games

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/models"
)

const selectColumns = `id, user_id, title, slug, rawg_id, platform, genre, cover_url, status,
	playtime_hours, personal_rating, notes, favorite, metadata, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Game, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM games_library
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]models.Game, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM games_library
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) CountActive(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT count(*)
		FROM games_library
		WHERE user_id = $1 AND status IN ('playing', 'backlog')
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Game, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM games_library
		WHERE id = $1 AND user_id = $2
	`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	query := `
		INSERT INTO games_library (user_id, title, platform, status, cover_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + selectColumns
	created, err := scanGame(r.db.QueryRowContext(ctx, query, g.UserID, g.Title, g.Platform, g.Status, g.CoverURL))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, userID, id string, status models.GameStatus) error {
	query := `
		UPDATE games_library
		SET status = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) UpdateStats(ctx context.Context, userID, id string, stats models.GameStats) error {
	query := `
		UPDATE games_library
		SET playtime_hours = COALESCE($3, playtime_hours),
		    personal_rating = COALESCE($4, personal_rating),
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, stats.PlaytimeHours, stats.PersonalRating)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

// ApplyEnrichment records catalog data. An existing cover is kept.
func (r *PostgresRepository) ApplyEnrichment(ctx context.Context, userID, id string, e models.GameEnrichment) error {
	query := `
		UPDATE games_library
		SET rawg_id = $3,
		    slug = NULLIF($4, ''),
		    genre = NULLIF($5, ''),
		    cover_url = COALESCE(cover_url, NULLIF($6, '')),
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, e.RAWGID, e.Slug, e.Genre, e.CoverURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM games_library
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func scanGame(s dbx.RowScanner) (*models.Game, error) {
	g := &models.Game{}
	var metadata []byte
	err := s.Scan(&g.ID, &g.UserID, &g.Title, &g.Slug, &g.RAWGID, &g.Platform, &g.Genre, &g.CoverURL, &g.Status,
		&g.PlaytimeHours, &g.PersonalRating, &g.Notes, &g.Favorite, &metadata, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		g.Metadata = json.RawMessage(metadata)
	}
	return g, nil
}
