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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
	status      string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskdeck add [common flags] [--desc <text>] [--priority low|medium|high] [--status todo|in-progress] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.status, "status", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := service.TaskDraft{
		Title:       strings.Join(args, " "),
		Description: c.description,
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

	w := newWorkspace(cfg, svc, out, errOut)
	if code, ok := requireAuth(ctx, w, errOut); !ok {
		return code
	}

	if err := w.tasks.Create(ctx, draft); err != nil {
		return surface(errOut, err)
	}
	return exitcode.Success
}

func parsePriority(v string) (service.Priority, error) {
	switch service.Priority(strings.ToLower(strings.TrimSpace(v))) {
	case service.PriorityLow:
		return service.PriorityLow, nil
	case service.PriorityMedium:
		return service.PriorityMedium, nil
	case service.PriorityHigh:
		return service.PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority: %s", v)
	}
}

func parseStatus(v string) (service.Status, error) {
	switch service.Status(strings.ToLower(strings.TrimSpace(v))) {
	case service.StatusTodo:
		return service.StatusTodo, nil
	case service.StatusInProgress:
		return service.StatusInProgress, nil
	case service.StatusCompleted:
		return service.StatusCompleted, nil
	default:
		return "", fmt.Errorf("invalid status: %s", v)
	}
}
