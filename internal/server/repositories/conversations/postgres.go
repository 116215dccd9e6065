package conversations

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `
		SELECT id, user_id, title, model, token_count, created_at, updated_at
		FROM ai_conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Model, &c.TokenCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, title, model, messages, token_count, created_at, updated_at
		FROM ai_conversations
		WHERE id = $1 AND user_id = $2
	`
	c := &models.Conversation{}
	var messages []byte
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&c.ID, &c.UserID, &c.Title, &c.Model, &messages, &c.TokenCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(messages, &c.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	query := `
		INSERT INTO ai_conversations (user_id, title, model, messages, token_count)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, c.UserID, c.Title, c.Model, string(messages), c.TokenCount).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ReplaceMessages(ctx context.Context, userID, id string, messages []models.ChatMessage, tokenCount int) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	query := `
		UPDATE ai_conversations
		SET messages = $3::jsonb, token_count = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, string(encoded), tokenCount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM ai_conversations
		WHERE id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
