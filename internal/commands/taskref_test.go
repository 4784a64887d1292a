package commands

import (
	"errors"
	"testing"

	"taskdeck/internal/service"
)

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "a1", Title: "first"},
		{ID: "b2", Title: "second"},
		{ID: "c3", Title: "third"},
	}
}

func TestResolveTask_ByNumber(t *testing.T) {
	task, err := resolveTask(sampleTasks(), []string{"2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "b2" {
		t.Errorf("expected task b2, got %q", task.ID)
	}
}

func TestResolveTask_ByID(t *testing.T) {
	task, err := resolveTask(sampleTasks(), []string{"c3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "third" {
		t.Errorf("expected the third task, got %q", task.Title)
	}
}

func TestResolveTask_NoArgs(t *testing.T) {
	_, err := resolveTask(sampleTasks(), nil)
	if !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestResolveTask_OutOfRange(t *testing.T) {
	for _, ref := range []string{"0", "4", "-1"} {
		if _, err := resolveTask(sampleTasks(), []string{ref}); err == nil {
			t.Errorf("expected an error for ref %q", ref)
		}
	}
}

func TestResolveTask_UnknownID(t *testing.T) {
	_, err := resolveTask(sampleTasks(), []string{"nope"})
	if err == nil || err.Error() != "task not found: nope" {
		t.Errorf("expected task not found error, got %v", err)
	}
}
