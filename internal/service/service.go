// Package service defines the backend-agnostic interface for the task API.
package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a protected call is rejected because
// the session cookie is missing or expired. Callers route it to the session
// manager instead of the generic error path.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrNetwork wraps transport-level failures (server unreachable, DNS, TLS).
// It is distinguished from server-rejected calls so session checks can apply
// their conservative "treat as logged out" policy.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx response from the server carrying its error detail.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Service defines the interface for task backend operations.
// All REST API calls go through this interface; the session manager, the
// reconciler and the commands never build HTTP requests directly.
type Service interface {
	// Login submits credentials. On success the backend holds a session
	// cookie for subsequent calls. A 4xx returns an *APIError with the
	// server-supplied detail.
	Login(ctx context.Context, email, password string) (LoginResult, error)

	// CurrentUser returns the authenticated user, or (nil, nil) when the
	// server answers 401. Only transport failures produce an error.
	CurrentUser(ctx context.Context) (*User, error)

	// Logout invalidates the server-side session. Best-effort: callers
	// clear local state even when this fails.
	Logout(ctx context.Context) error

	// ListTasks returns all tasks for the session user, newest first.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task from the draft and returns the server record.
	CreateTask(ctx context.Context, draft TaskDraft) (Task, error)

	// UpdateTask replaces the task's draft fields and returns the server record.
	UpdateTask(ctx context.Context, id string, draft TaskDraft) (Task, error)

	// ToggleTask flips the task's completion flag server-side and returns
	// the updated record with completed and status recomputed together.
	ToggleTask(ctx context.Context, id string) (Task, error)

	// DeleteTask deletes a task. Both 204-empty and JSON-bodied success
	// responses are accepted.
	DeleteTask(ctx context.Context, id string) error
}
