package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ListGroups(ctx context.Context) error
	AddGroup(ctx context.Context, args []string) error
	JoinGroup(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the groupshare CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit",
// which also disconnects.
//
// Prompt & Commands
//
//	Not logged in:
//	  - help                       — show available commands
//	  - register                   — create an account
//	  - login                      — authenticate
//	  - exit | quit                — leave the program
//
//	Logged in:
//	  - help                       — show available commands
//	  - groups                     — list groups
//	  - addgroup [name]            — create a group and join it
//	  - join [name]                — join a group with its password
//	  - upload <path> [group]      — upload a file
//	  - download [group]           — download every file of a group
//	  - remove <filename> [group]  — remove a file
//	  - logout                     — log out
//	  - exit | quit                — leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// them to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gs %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() && requiresLogin(cmd) {
			printlnFn("Please login first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: groups, addgroup, join, upload, download, remove, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "groups":
			_ = a.ListGroups(ctx)

		case "addgroup":
			_ = a.AddGroup(ctx, args)

		case "join":
			_ = a.JoinGroup(ctx, args)

		case "upload":
			_ = a.Upload(ctx, args)

		case "download":
			_ = a.Download(ctx, args)

		case "remove":
			_ = a.Remove(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			_ = a.Disconnect(ctx)
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requiresLogin(cmd string) bool {
	switch cmd {
	case "groups", "addgroup", "join", "upload", "download", "remove", "logout":
		return true
	}
	return false
}
