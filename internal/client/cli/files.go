package cli

import (
	"context"
	"errors"
	"fmt"
)

var errNoGroup = errors.New("no group selected, use 'join' first or name one")

// currentGroup returns the group named in args at position i, or the
// joined group.
func (a *App) currentGroup(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	if a.group == "" {
		return "", errNoGroup
	}
	return a.group, nil
}

// Upload sends a local file: upload <path> [group].
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: upload <path> [group]")
		return nil
	}
	group, err := a.currentGroup(args, 1)
	if err != nil {
		return a.fail(err)
	}

	if err := a.client.UploadFile(ctx, args[0], group); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Uploaded %s to %q\n", args[0], group)
	return nil
}

// Download fetches every file of a group: download [group].
func (a *App) Download(ctx context.Context, args []string) error {
	group, err := a.currentGroup(args, 0)
	if err != nil {
		return a.fail(err)
	}

	files, err := a.client.DownloadAllFiles(ctx, group, a.config.DownloadDir)
	for _, f := range files {
		fmt.Fprintf(a.out, "  %s (%d bytes)\n", f.Filename, f.Filesize)
	}
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%d file(s) from %q saved under %s\n", len(files), group, a.config.DownloadDir)
	return nil
}

// Remove deletes a file on the server: remove <filename> [group].
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: remove <filename> [group]")
		return nil
	}
	group, err := a.currentGroup(args, 1)
	if err != nil {
		return a.fail(err)
	}

	if err := a.client.RemoveFile(ctx, group, args[0]); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Removed %s from %q\n", args[0], group)
	return nil
}
