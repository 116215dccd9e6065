// Package games stores the personal game library.
package games

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

// Repository is owner-scoped throughout: every method takes the caller's
// user id and never touches another user's rows.
type Repository interface {
	List(ctx context.Context, userID string) ([]models.Game, error)
	ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]models.Game, error)
	// CountActive counts games that are playing or in the backlog.
	CountActive(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, userID, id string) (*models.Game, error)
	Create(ctx context.Context, g *models.Game) (*models.Game, error)
	UpdateStatus(ctx context.Context, userID, id string, status models.GameStatus) error
	UpdateStats(ctx context.Context, userID, id string, stats models.GameStats) error
	ApplyEnrichment(ctx context.Context, userID, id string, e models.GameEnrichment) error
	Delete(ctx context.Context, userID, id string) error
}
