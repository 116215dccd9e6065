// Package transactions stores the finance ledger.
package transactions

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	// Delete removes the caller's row. A foreign or unknown id matches
	// nothing and is not an error.
	Delete(ctx context.Context, userID, id string) error
	// ListByDateRange returns rows dated within [from, to] inclusive,
	// newest first. Dates are YYYY-MM-DD.
	ListByDateRange(ctx context.Context, userID, from, to string) ([]models.Transaction, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}
