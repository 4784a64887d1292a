package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the session user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Print the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "taskdeck whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	w := newWorkspace(cfg, svc, out, errOut)
	if w.manager.CheckStatus(ctx) != session.StateAuthenticated {
		fmt.Fprintln(errOut, "error: not logged in (run: taskdeck login)")
		return exitcode.AuthError
	}
	output.FormatUser(out, w.manager.User())
	return exitcode.Success
}
