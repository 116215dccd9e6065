// Package ebooks stores ebook metadata. File bytes are held by the file
// store and referenced through RemoteFileID.
package ebooks

import (
	"context"
	"time"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]models.Ebook, error)
	Count(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, userID, id string) (*models.Ebook, error)
	Create(ctx context.Context, e *models.Ebook) (*models.Ebook, error)
	// CreateIfAbsent inserts e unless the caller already has a row for the
	// same remote file, and reports whether a row was written.
	CreateIfAbsent(ctx context.Context, e *models.Ebook) (bool, error)
	RemoteFileIDs(ctx context.Context, userID string) ([]string, error)
	UpdateProgress(ctx context.Context, userID, id string, p models.ReadingProgress, status models.EbookStatus, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
}
