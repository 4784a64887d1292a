package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Flags that are not provided keep the
// task's current values; the full draft is always sent to the server.
type EditCmd struct {
	title       string
	description string
	priority    string
	status      string

	descSet bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskdeck edit [common flags] [--title <text>] [--desc <text>] [--priority <p>] [--status <s>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.Func("desc", "", func(v string) error {
		c.description = v
		c.descSet = true
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
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

	draft := service.TaskDraft{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
	}
	if strings.TrimSpace(c.title) != "" {
		draft.Title = c.title
	}
	if c.descSet {
		draft.Description = c.description
	}
	if c.priority != "" {
		p, err := parsePriority(c.priority)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.Priority = p
	}
	if c.status != "" {
		s, err := parseStatus(c.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.Status = s
	}

	if err := w.tasks.Update(ctx, task.ID, draft); err != nil {
		return surface(errOut, err)
	}
	return exitcode.Success
}
