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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdeck help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskdeck                                           List all tasks
  taskdeck list [common flags] [--open] [--detail]
  taskdeck add [common flags] [--desc <text>] [--priority <p>] [--status <s>] <title...>
  taskdeck done [common flags] <ref>
  taskdeck edit [common flags] [--title <text>] [--desc <text>] [--priority <p>] [--status <s>] <ref>
  taskdeck rm [common flags] <ref>
  taskdeck dash [common flags]
  taskdeck login [common flags] [--email <email>] [--password <password>]
  taskdeck logout [common flags]
  taskdeck whoami [common flags]
  taskdeck help
  taskdeck version

A <ref> is a task number from the list output, or a task id.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
