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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskdeck rm [common flags] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
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

	if err := w.tasks.Delete(ctx, task.ID); err != nil {
		return surface(errOut, err)
	}
	return exitcode.Success
}
