package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/client/client"
	"github.com/dmitrijs2005/groupshare/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, promptUserName, a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.reader, promptUserPassword, a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts for a user name and password and creates the account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if err := a.client.Register(ctx, userName, string(password)); err != nil {
		if errors.Is(err, client.ErrRegistrationFailed) {
			fmt.Fprintln(a.out, "Registration failed: the name may be taken, or the server could not store it")
			return err
		}
		return a.fail(err)
	}

	fmt.Fprintln(a.out, "Registration successful")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	ok, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Login unsuccessful")
		return common.ErrorUnauthorized
	}

	a.userName = userName
	a.group = ""
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.userName = ""
	a.group = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Disconnect ends the session on the server side before the REPL exits.
func (a *App) Disconnect(ctx context.Context) error {
	if err := a.client.Disconnect(ctx); err != nil {
		return a.fail(err)
	}
	a.userName = ""
	a.group = ""
	return nil
}
