package commands

import (
	"errors"
	"fmt"
	"strconv"

	"taskdeck/internal/service"
)

// ErrTaskRefRequired is returned when a command that needs a task reference
// receives none.
var ErrTaskRefRequired = errors.New("task reference required")

// resolveTask finds a task by reference: a positive integer is a 1-based
// position in the current list, anything else is matched as an exact id.
func resolveTask(tasks []service.Task, args []string) (service.Task, error) {
	if len(args) == 0 {
		return service.Task{}, ErrTaskRefRequired
	}
	ref := args[0]

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tasks) {
			return service.Task{}, fmt.Errorf("task number out of range: %d", n)
		}
		return tasks[n-1], nil
	}

	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("task not found: %s", ref)
}
