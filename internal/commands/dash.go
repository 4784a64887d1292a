package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/notify"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
	"taskdeck/internal/tui"
)

func init() {
	Register(&DashCmd{})
}

// DashCmd implements the dash command, the interactive dashboard.
type DashCmd struct{}

func (c *DashCmd) Name() string      { return "dash" }
func (c *DashCmd) Aliases() []string { return []string{"ui"} }
func (c *DashCmd) Synopsis() string  { return "Open the interactive dashboard" }
func (c *DashCmd) Usage() string     { return "taskdeck dash" }
func (c *DashCmd) NeedsAuth() bool   { return false }

func (c *DashCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if svc == nil {
		fmt.Fprintln(errOut, "error: no backend available")
		return exitcode.BackendError
	}

	// The dashboard collects notifications into a recorder and shows them
	// as toasts instead of writing to the terminal mid-frame.
	notes := &notify.Recorder{}
	manager := session.NewManager(svc, cfg.LoginSettle)
	tasks := tasklist.NewReconciler(svc, manager, notes)
	manager.OnInvalidate(tasks.MarkStale)

	model := tui.New(svc, manager, tasks, notes)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
