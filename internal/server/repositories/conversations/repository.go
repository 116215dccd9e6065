// Package conversations stores AI chat transcripts as a JSON message list.
package conversations

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	// List returns the caller's conversations, most recently updated first,
	// without their messages.
	List(ctx context.Context, userID string) ([]models.Conversation, error)
	Get(ctx context.Context, userID, id string) (*models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error)
	// ReplaceMessages overwrites the transcript of the caller's conversation.
	ReplaceMessages(ctx context.Context, userID, id string, messages []models.ChatMessage, tokenCount int) error
	Delete(ctx context.Context, userID, id string) error
}
