package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command: it toggles a task's completion flag,
// so running it on a completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "taskdeck done [common flags] <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	w := newWorkspace(cfg, svc, out, errOut)
	if code, ok := requireAuth(ctx, w, errOut); !ok {
		return code
	}

	if err := w.tasks.Load(ctx); err != nil {
		return surface(errOut, err)
	}

	task, err := resolveTask(w.tasks.Snapshot(), args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := w.tasks.Toggle(ctx, task.ID); err != nil {
		return surface(errOut, err)
	}
	return exitcode.Success
}
