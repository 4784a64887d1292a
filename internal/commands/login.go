package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string

	// input overrides the interactive prompt source (for testing).
	input io.Reader
}

// SetInput sets the prompt source (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.input = r
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate with the task API" }
func (c *LoginCmd) Usage() string {
	return "taskdeck login [common flags] [--email <email>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if svc == nil {
		fmt.Fprintln(errOut, "error: no backend available")
		return exitcode.BackendError
	}

	in := c.input
	if in == nil {
		in = os.Stdin
	}
	reader := bufio.NewReader(in)

	email := strings.TrimSpace(c.email)
	if email == "" {
		fmt.Fprint(errOut, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(errOut, "error: email required")
			return exitcode.UserError
		}
		email = strings.TrimSpace(line)
	}
	password := c.password
	if password == "" {
		fmt.Fprint(errOut, "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(errOut, "error: password required")
			return exitcode.UserError
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if email == "" || password == "" {
		fmt.Fprintln(errOut, "error: email and password required")
		return exitcode.UserError
	}

	if _, err := svc.Login(ctx, email, password); err != nil {
		var apiErr *service.APIError
		switch {
		case errors.As(err, &apiErr):
			fmt.Fprintf(errOut, "error: %s\n", apiErr.Detail)
			return exitcode.AuthError
		case errors.Is(err, service.ErrNetwork):
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
	}

	// The login response and the cookie commit are not synchronous; confirm
	// the session before reporting success.
	manager := session.NewManager(svc, cfg.LoginSettle)
	if manager.ConfirmLogin(ctx) != session.StateAuthenticated {
		fmt.Fprintln(errOut, "error: login accepted but session could not be verified")
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		if user := manager.User(); user != nil {
			fmt.Fprintf(out, "logged in as %s\n", user.Email)
		} else {
			fmt.Fprintln(out, "ok")
		}
	}
	return exitcode.Success
}
