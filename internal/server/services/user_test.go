package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/dbx"
	"github.com/dmitrijs2005/groupshare/internal/server/models"
	"github.com/dmitrijs2005/groupshare/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/groupshare/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteUserService(t *testing.T) *UserService {
	t.Helper()
	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := &repomanager.SQLiteRepositoryManager{}
	require.NoError(t, rm.RunMigrations(ctx, db))
	return NewUserService(db, rm)
}

func TestUserService_RegisterThenLogin(t *testing.T) {
	s := newSQLiteUserService(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, "alice", "wonderland"))

	ok, err := s.CheckCredentials(ctx, "alice", "wonderland")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CheckCredentials(ctx, "alice", "looking-glass")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	s := newSQLiteUserService(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, "alice", "wonderland"))

	okUnknown, errUnknown := s.CheckCredentials(ctx, "mallory", "wonderland")
	okWrong, errWrong := s.CheckCredentials(ctx, "alice", "nope")

	assert.Equal(t, okWrong, okUnknown)
	assert.Equal(t, errWrong, errUnknown)
	assert.False(t, okUnknown)
	assert.NoError(t, errUnknown)
}

func TestUserService_DuplicateUser(t *testing.T) {
	s := newSQLiteUserService(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, "bob", "one"))
	err := s.CreateUser(ctx, "bob", "two")
	assert.ErrorIs(t, err, common.ErrDuplicateUser)

	ok, err := s.CheckCredentials(ctx, "bob", "one")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserService_PasswordNotStoredInClear(t *testing.T) {
	s := newSQLiteUserService(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, "dave", "plaintext-secret"))

	var stored string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, "dave").Scan(&stored))
	assert.NotContains(t, stored, "plaintext-secret")
}

type failingUsersRepo struct{ err error }

func (f failingUsersRepo) Create(context.Context, *models.User) error { return f.err }
func (f failingUsersRepo) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, f.err
}

type fakeManager struct {
	repomanager.RepositoryManager
	repo usersrepo.Repository
}

func (m fakeManager) Users(dbx.DBTX) usersrepo.Repository { return m.repo }

func TestUserService_StorageErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewUserService(db, fakeManager{repo: failingUsersRepo{err: errors.New("db error: gone")}})

	ok, err := s.CheckCredentials(context.Background(), "x", "y")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "gone")

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = s.CreateUser(context.Background(), "x", "y")
	assert.ErrorContains(t, err, "error creating user")
	assert.NotErrorIs(t, err, common.ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}
