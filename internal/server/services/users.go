// Package services implements the server's business operations on top of
// the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/cryptox"
	"github.com/dmitrijs2005/groupshare/internal/dbx"
	"github.com/dmitrijs2005/groupshare/internal/server/models"
	"github.com/dmitrijs2005/groupshare/internal/server/repositories/repomanager"
)

// UserService is the credential store: it registers accounts and checks
// passwords against their stored hashes.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// CreateUser stores a new account. A taken username yields
// common.ErrDuplicateUser; any other failure is a storage error.
func (s *UserService) CreateUser(ctx context.Context, username, password string) error {
	user := &models.User{
		Username:     username,
		PasswordHash: cryptox.HashUserPassword(password),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			return err
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// CheckCredentials reports whether password matches the stored hash of
// username. An unknown user is reported exactly like a wrong password; the
// hash is computed in both cases so timing does not tell them apart. The
// error is non-nil only when the store itself fails.
func (s *UserService) CheckCredentials(ctx context.Context, username, password string) (bool, error) {
	candidate := cryptox.HashUserPassword(password)

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error loading user: %w", err)
	}

	return cryptox.CompareHash(candidate, user.PasswordHash), nil
}
