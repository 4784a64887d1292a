// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/service"
)

// FormatTask formats one task line.
// Format: "{N:>4}  [{x| }]  {TITLE}  ({priority}, {status})"
func FormatTask(w io.Writer, num int, task service.Task) {
	check := " "
	if task.Completed {
		check = "x"
	}
	fmt.Fprintf(w, "%4d  [%s]  %s  (%s, %s)\n", num, check, normalizeTitle(task.Title), task.Priority, task.Status)
}

// FormatTaskDetail formats a task with its description indented below.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "          %s\n", line)
		}
	}
}

// FormatUser formats the session user for the whoami command.
func FormatUser(w io.Writer, user *service.User) {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" {
		fmt.Fprintf(w, "%s <%s>\n", name, user.Email)
		return
	}
	fmt.Fprintln(w, user.Email)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
