// Package service defines the backend-agnostic interface for the task API.
package service

import "time"

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the task workflow status.
// StatusCompleted is a redundant encoding of Task.Completed; every mutation
// path keeps the two in lockstep.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// StatusForCompleted returns the status implied by a completion flag.
func StatusForCompleted(completed bool) Status {
	if completed {
		return StatusCompleted
	}
	return StatusTodo
}

// Task represents a single task item as returned by the API.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// TaskDraft holds the task fields a client submits on create and update.
// The server assigns id, user_id and timestamps.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Status      Status   `json:"status,omitempty"`
}

// User is the record returned by the session-verification endpoint.
// Callers only rely on it being present or absent; fields are for display.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// LoginResult is the payload returned by a successful login.
// The session itself is established by the cookie set alongside it.
type LoginResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}
