package client

import (
	"context"

	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (bool, error)
	Logout(ctx context.Context) error
	AddGroup(ctx context.Context, name, password string) error
	VerifyGroupPassword(ctx context.Context, name, password string) (bool, error)
	ListGroups(ctx context.Context) ([]string, error)
	UploadFile(ctx context.Context, path, group string) error
	DownloadAllFiles(ctx context.Context, group, destDir string) ([]protocol.FileMeta, error)
	RemoveFile(ctx context.Context, group, filename string) error
	Disconnect(ctx context.Context) error
}
