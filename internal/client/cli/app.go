package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/groupshare/internal/client/client"
	"github.com/dmitrijs2005/groupshare/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
	group    string
}

func NewApp(c *config.Config) *App {
	cl := client.NewTCPClient(c.ServerEndpointAddr, c.DialTimeout, c.IOTimeout)
	return newApp(c, cl, os.Stdin, os.Stdout)
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, reader: bufio.NewReader(in), out: out}
}

// Run connects to the server and serves the REPL until the user exits or
// input ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", a.config.ServerEndpointAddr, err)
	}
	defer func() { _ = a.client.Close() }()

	fmt.Fprintf(a.out, "Welcome to groupshare (connected to %s, type 'help' for commands)\n", a.config.ServerEndpointAddr)
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	s := a.userName
	if a.group != "" {
		s += "@" + a.group
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	fmt.Fprintln(a.out, "Error:", err)
	return err
}
