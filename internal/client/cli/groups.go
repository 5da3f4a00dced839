package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

func (a *App) ListGroups(ctx context.Context) error {
	names, err := a.client.ListGroups(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No groups yet")
		return nil
	}
	for _, n := range names {
		marker := " "
		if n == a.group {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s\n", marker, n)
	}
	return nil
}

// AddGroup creates a group and joins it. Creating a name that already
// exists is accepted by the server but leaves its password unchanged, so
// the user still has to join it with the right password.
func (a *App) AddGroup(ctx context.Context, args []string) error {
	name, err := a.groupArg(args, promptGroupName)
	if err != nil {
		return a.fail(err)
	}
	password, err := getPassword(a.reader, promptGroupPassword, a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if err := a.client.AddGroup(ctx, name, string(password)); err != nil {
		return a.fail(err)
	}
	ok, err := a.client.VerifyGroupPassword(ctx, name, string(password))
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintf(a.out, "Group %q already exists with a different password\n", name)
		return common.ErrDuplicateGroup
	}

	a.group = name
	fmt.Fprintf(a.out, "Group %q ready\n", name)
	return nil
}

// JoinGroup checks the group password and makes the group current.
func (a *App) JoinGroup(ctx context.Context, args []string) error {
	name, err := a.groupArg(args, promptGroupName)
	if err != nil {
		return a.fail(err)
	}
	password, err := getPassword(a.reader, promptGroupPassword, a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	ok, err := a.client.VerifyGroupPassword(ctx, name, string(password))
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Wrong group name or password")
		return common.ErrorForbidden
	}

	a.group = name
	fmt.Fprintf(a.out, "Joined %q\n", name)
	return nil
}

func (a *App) groupArg(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
