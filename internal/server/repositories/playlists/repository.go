// Package playlists stores the grouping entities for media items.
package playlists

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]models.Playlist, error)
	Count(ctx context.Context, userID string) (int, error)
	// Exists reports whether id names one of the caller's playlists.
	Exists(ctx context.Context, userID, id string) (bool, error)
	Create(ctx context.Context, p *models.Playlist) (*models.Playlist, error)
	// Delete removes the playlist; its media rows survive with a NULL
	// playlist_id.
	Delete(ctx context.Context, userID, id string) error
}
