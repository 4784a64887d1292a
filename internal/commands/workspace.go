package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/notify"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
)

// workspace wires the session manager and the reconciler for one command
// invocation. The reconciler holds the manager's invalidation capability and
// the manager's invalidation signal marks the reconciler stale.
type workspace struct {
	manager *session.Manager
	tasks   *tasklist.Reconciler
}

func newWorkspace(cfg *config.Config, svc service.Service, out, errOut io.Writer) *workspace {
	manager := session.NewManager(svc, cfg.LoginSettle)
	tasks := tasklist.NewReconciler(svc, manager, &cliNotifier{
		out:    out,
		errOut: errOut,
		quiet:  cfg.Quiet,
	})
	manager.OnInvalidate(tasks.MarkStale)
	return &workspace{manager: manager, tasks: tasks}
}

// cliNotifier routes reconciler notifications to the command writers:
// informational messages to stdout (suppressed by --quiet), errors to stderr.
type cliNotifier struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

func (n *cliNotifier) Notify(level notify.Level, message string) {
	if level == notify.LevelError {
		fmt.Fprintf(n.errOut, "error: %s\n", message)
		return
	}
	if !n.quiet {
		fmt.Fprintln(n.out, message)
	}
}

// requireAuth verifies the stored session before a protected command runs.
func requireAuth(ctx context.Context, w *workspace, errOut io.Writer) (int, bool) {
	if w.manager.CheckStatus(ctx) != session.StateAuthenticated {
		fmt.Fprintln(errOut, "error: not logged in (run: taskdeck login)")
		return exitcode.AuthError, false
	}
	return exitcode.Success, true
}

// surface maps a reconciler error to an exit code. Validation errors are
// printed here; network and server failures were already surfaced through
// the notifier.
func surface(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, tasklist.ErrEmptyTitle), errors.Is(err, tasklist.ErrTaskNotFound):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrUnauthenticated):
		return exitcode.AuthError
	default:
		return exitcode.BackendError
	}
}
