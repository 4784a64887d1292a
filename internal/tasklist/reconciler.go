// Package tasklist maintains the in-memory task list and reconciles
// optimistic local mutations against the backend.
//
// Every mutating operation applies its expected effect immediately, then
// resolves to one of two outcomes: confirmed (the server record replaces the
// optimistic one) or rolled back (the pre-mutation snapshot is restored).
// State updates from overlapping operations land in completion order.
package tasklist

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/notify"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// ErrEmptyTitle is returned when a create or update is submitted without a
// title. Caught before any network call; no state is mutated.
var ErrEmptyTitle = errors.New("title required")

// ErrTaskNotFound is returned when a mutation references an id that is not
// in the local list.
var ErrTaskNotFound = errors.New("task not found")

// TempIDPrefix marks locally generated placeholder identifiers. A placeholder
// id is never visible after its create resolves.
const TempIDPrefix = "temp-"

// Reconciler owns the task list. Views read snapshots and never mutate the
// list directly. The session manager is an explicit dependency, reached
// through its Invalidator capability when the API reports an expired session.
type Reconciler struct {
	svc      service.Service
	sessions session.Invalidator
	notifier notify.Notifier

	list  *entityList[service.Task]
	ever  atomic.Bool // a load has succeeded at least once
	stale atomic.Bool // session was invalidated; next use needs a reload
}

// NewReconciler creates a reconciler with an empty list.
func NewReconciler(svc service.Service, sessions session.Invalidator, notifier notify.Notifier) *Reconciler {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Reconciler{
		svc:      svc,
		sessions: sessions,
		notifier: notifier,
		list:     newEntityList(func(t service.Task) string { return t.ID }),
	}
}

// Snapshot returns a copy of the current task list.
func (r *Reconciler) Snapshot() []service.Task {
	return r.list.snapshot()
}

// Stale reports whether the session was invalidated since the last load.
// The optimistic state stays visible; it is simply no longer trusted.
func (r *Reconciler) Stale() bool {
	return r.stale.Load()
}

// MarkStale flags the cached list as needing a reload. Wired to the session
// manager's invalidation signal.
func (r *Reconciler) MarkStale() {
	r.stale.Store(true)
}

// Clear discards the cached list. Called on explicit logout.
func (r *Reconciler) Clear() {
	r.list.replaceAll(nil)
	r.ever.Store(false)
	r.stale.Store(false)
}

// Load fetches the full task list and replaces local state wholesale.
// A failure is surfaced but keeps the previously loaded list, so a transient
// error after a successful load never flashes an empty view.
func (r *Reconciler) Load(ctx context.Context) error {
	tasks, err := r.svc.ListTasks(ctx)
	if err != nil {
		return r.fail(err, "Failed to fetch tasks")
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	r.list.replaceAll(tasks)
	r.ever.Store(true)
	r.stale.Store(false)
	return nil
}

// Loaded reports whether any load has succeeded.
func (r *Reconciler) Loaded() bool {
	return r.ever.Load()
}

// Create inserts a placeholder task at the front of the list, dispatches the
// create request, and replaces the placeholder in place with the server
// record. On failure the placeholder is removed. Each call produces its own
// placeholder; debouncing double submissions is the caller's job.
func (r *Reconciler) Create(ctx context.Context, draft service.TaskDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrEmptyTitle
	}
	if draft.Priority == "" {
		draft.Priority = service.PriorityMedium
	}
	if draft.Status == "" || draft.Status == service.StatusCompleted {
		// A freshly created task is never already completed.
		draft.Status = service.StatusTodo
	}

	now := time.Now().UTC()
	placeholder := service.Task{
		ID:          TempIDPrefix + uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Completed:   false,
		Priority:    draft.Priority,
		Status:      draft.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := stage(r.list,
		func(l *entityList[service.Task]) { l.insertFront(placeholder) },
		func() (service.Task, error) { return r.svc.CreateTask(ctx, draft) },
		func(l *entityList[service.Task], created service.Task) {
			normalize(&created)
			if !l.replaceByID(placeholder.ID, created) {
				// Placeholder already gone (e.g. cleared); keep server truth.
				l.restoreFront(created)
			}
		},
		func(l *entityList[service.Task]) { l.removeByID(placeholder.ID) },
	)
	if err != nil {
		return r.fail(err, "Failed to add task")
	}
	r.notifier.Notify(notify.LevelSuccess, "Task added")
	return nil
}

// Toggle flips the completion flag and the derived status immediately, then
// reconciles with the server record. On failure the remembered pre-toggle
// values are restored; a blind double inversion would be wrong if the flag
// changed again while the call was in flight.
//
// Two overlapping toggles on the same task remain a known race: the rollback
// of the first failure can clobber the second call's optimistic state.
func (r *Reconciler) Toggle(ctx context.Context, id string) error {
	prev, ok := r.list.get(id)
	if !ok {
		return ErrTaskNotFound
	}
	next := !prev.Completed

	_, err := stage(r.list,
		func(l *entityList[service.Task]) {
			l.patchByID(id, func(t *service.Task) {
				t.Completed = next
				t.Status = service.StatusForCompleted(next)
			})
		},
		func() (service.Task, error) { return r.svc.ToggleTask(ctx, id) },
		func(l *entityList[service.Task], updated service.Task) {
			// Server truth wins, with flag and status re-synced in case the
			// server computed them differently.
			normalize(&updated)
			l.replaceByID(id, updated)
		},
		func(l *entityList[service.Task]) {
			l.patchByID(id, func(t *service.Task) {
				t.Completed = prev.Completed
				t.Status = prev.Status
			})
		},
	)
	if err != nil {
		return r.fail(err, "Failed to update task")
	}
	if next {
		r.notifier.Notify(notify.LevelSuccess, "Task marked as completed")
	} else {
		r.notifier.Notify(notify.LevelSuccess, "Task marked as incomplete")
	}
	return nil
}

// Update applies the edited fields immediately, dispatches the update
// request, and restores the pre-edit snapshot on failure.
func (r *Reconciler) Update(ctx context.Context, id string, draft service.TaskDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrEmptyTitle
	}
	prev, ok := r.list.get(id)
	if !ok {
		return ErrTaskNotFound
	}
	if draft.Priority == "" {
		draft.Priority = service.PriorityMedium
	}
	if draft.Status == "" {
		draft.Status = service.StatusTodo
	}

	_, err := stage(r.list,
		func(l *entityList[service.Task]) {
			l.patchByID(id, func(t *service.Task) {
				t.Title = draft.Title
				t.Description = draft.Description
				t.Priority = draft.Priority
				t.Status = draft.Status
				t.Completed = draft.Status == service.StatusCompleted
			})
		},
		func() (service.Task, error) { return r.svc.UpdateTask(ctx, id, draft) },
		func(l *entityList[service.Task], updated service.Task) {
			normalize(&updated)
			l.replaceByID(id, updated)
		},
		func(l *entityList[service.Task]) { l.replaceByID(id, prev) },
	)
	if err != nil {
		return r.fail(err, "Failed to update task")
	}
	r.notifier.Notify(notify.LevelSuccess, "Task updated")
	return nil
}

// Delete removes the task immediately and dispatches the delete request.
// On failure the removed task is reinserted at the front of the list, which
// may differ from its original position.
func (r *Reconciler) Delete(ctx context.Context, id string) error {
	prev, ok := r.list.get(id)
	if !ok {
		return ErrTaskNotFound
	}

	_, err := stage(r.list,
		func(l *entityList[service.Task]) { l.removeByID(id) },
		func() (struct{}, error) { return struct{}{}, r.svc.DeleteTask(ctx, id) },
		func(l *entityList[service.Task], _ struct{}) {},
		func(l *entityList[service.Task]) { l.restoreFront(prev) },
	)
	if err != nil {
		return r.fail(err, "Failed to delete task")
	}
	r.notifier.Notify(notify.LevelSuccess, "Task deleted")
	return nil
}

// fail resolves a mutation failure. Session expiry routes through the
// session manager's invalidation capability and leaves the optimistic state
// as shown; every other failure rolls back and surfaces a notification.
// Nothing is retried automatically.
func (r *Reconciler) fail(err error, fallbackMsg string) error {
	var staged interface{ rollback() }
	isStaged := errors.As(err, &staged)

	if errors.Is(err, service.ErrUnauthenticated) {
		if r.sessions != nil {
			r.sessions.InvalidateSession()
		}
		r.notifier.Notify(notify.LevelError, err.Error())
		return err
	}

	if isStaged {
		staged.rollback()
	}
	msg := err.Error()
	if msg == "" {
		msg = fallbackMsg
	}
	r.notifier.Notify(notify.LevelError, msg)
	return err
}

// normalize keeps the redundant completed/status pair consistent.
func normalize(t *service.Task) {
	switch {
	case t.Completed && t.Status != service.StatusCompleted:
		t.Status = service.StatusCompleted
	case !t.Completed && t.Status == service.StatusCompleted:
		t.Status = service.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	if t.Status == "" {
		t.Status = service.StatusTodo
	}
}
