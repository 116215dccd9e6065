// Package media stores saved YouTube and Spotify items.
package media

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	// List returns the caller's items newest first, restricted to one
	// playlist when playlistID is non-nil.
	List(ctx context.Context, userID string, playlistID *string) ([]models.MediaItem, error)
	Create(ctx context.Context, m *models.MediaItem) (*models.MediaItem, error)
	Delete(ctx context.Context, userID, id string) error
	// SetPlaylist moves an item into playlistID, or out of any playlist when nil.
	SetPlaylist(ctx context.Context, userID, id string, playlistID *string) error
}
