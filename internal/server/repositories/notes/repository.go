// Package notes stores notes with their bodies kept as opaque text.
package notes

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	// List returns pinned notes first, then newest first.
	List(ctx context.Context, userID string) ([]models.Note, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Note, error)
	Create(ctx context.Context, n *models.Note) (*models.Note, error)
	// Update overwrites title, body and kind of the caller's note.
	// A foreign or unknown id yields common.ErrorNotFound.
	Update(ctx context.Context, n *models.Note) (*models.Note, error)
	Delete(ctx context.Context, userID, id string) error
	// TogglePin flips the pinned flag and returns the new value.
	TogglePin(ctx context.Context, userID, id string) (bool, error)
}
