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
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskdeck` (no args) and `taskdeck list`. Tasks are numbered
// by their position in the list so the numbers stay valid as references for
// done/edit/rm even when --open hides completed tasks.
type ListCmd struct {
	openOnly bool
	detailed bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskdeck list [common flags] [--open] [--detail]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.openOnly, "open", false, "")
	fs.BoolVar(&c.detailed, "detail", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	w := newWorkspace(cfg, svc, io.Discard, errOut)
	if code, ok := requireAuth(ctx, w, errOut); !ok {
		return code
	}

	if err := w.tasks.Load(ctx); err != nil {
		return surface(errOut, err)
	}

	shown := 0
	for i, task := range w.tasks.Snapshot() {
		if c.openOnly && task.Completed {
			continue
		}
		shown++
		if c.detailed {
			output.FormatTaskDetail(out, i+1, task)
		} else {
			output.FormatTask(out, i+1, task)
		}
	}

	if shown == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
