// Package users stores accounts of the credential store.
package users

import (
	"context"

	"github.com/dmitrijs2005/groupshare/internal/server/models"
)

// Repository persists users. Create fails with common.ErrDuplicateUser when
// the username is taken; GetByUsername returns common.ErrorNotFound for an
// unknown name.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
