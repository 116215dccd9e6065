// Package users declares and implements storage of Hub accounts.
package users

import (
	"context"

	"github.com/hubpessoal/hub/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its id and creation time.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
