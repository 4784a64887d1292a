// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskdeck/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Error injection fields let tests force any call to fail; Gate lets tests
// hold a call in flight to exercise overlapping mutations.
type FakeService struct {
	mu     sync.RWMutex
	user   *service.User
	authed bool
	tasks  []service.Task
	nextID int

	// Error injection for testing
	LoginErr       error
	CurrentUserErr error
	LogoutErr      error
	ListTasksErr   error
	CreateTaskErr  error
	UpdateTaskErr  error
	ToggleTaskErr  error
	DeleteTaskErr  error

	// Gate, when non-nil, is received from at the start of every task
	// mutation so tests can control completion order.
	Gate chan struct{}

	// Calls records method names in invocation order.
	Calls []string
}

// NewFakeService creates a FakeService with a logged-in default user.
func NewFakeService() *FakeService {
	return &FakeService{
		user: &service.User{
			ID:    "user-1",
			Email: "dev@example.com",
		},
		authed: true,
		nextID: 1,
	}
}

// SetAuthenticated controls whether protected calls succeed.
func (f *FakeService) SetAuthenticated(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = ok
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:        fmt.Sprintf("task-%d", f.nextID),
		Title:     title,
		Completed: completed,
		Priority:  service.PriorityMedium,
		Status:    service.StatusForCompleted(completed),
		UserID:    f.user.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	f.nextID++
	f.tasks = append([]service.Task{t}, f.tasks...)
	return t
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeService) record(name string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, name)
	f.mu.Unlock()
}

func (f *FakeService) wait() {
	if f.Gate != nil {
		<-f.Gate
	}
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return service.LoginResult{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = true
	f.user.Email = email
	return service.LoginResult{Message: "Login successful", UserID: f.user.ID}, nil
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context) (*service.User, error) {
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return nil, f.CurrentUserErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.authed {
		return nil, nil
	}
	u := *f.user
	return &u, nil
}

// Logout implements service.Service.
func (f *FakeService) Logout(ctx context.Context) error {
	f.record("Logout")
	if f.LogoutErr != nil {
		return f.LogoutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = false
	return nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	if err := f.requireAuth(); err != nil {
		return nil, err
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.TaskDraft) (service.Task, error) {
	f.record("CreateTask")
	f.wait()
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if err := f.requireAuth(); err != nil {
		return service.Task{}, err
	}
	if strings.TrimSpace(draft.Title) == "" {
		return service.Task{}, &service.APIError{Status: 422, Detail: "title required"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      draft.Status,
		Completed:   draft.Status == service.StatusCompleted,
		UserID:      f.user.ID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	if t.Status == "" {
		t.Status = service.StatusTodo
	}
	f.nextID++
	f.tasks = append([]service.Task{t}, f.tasks...)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, draft service.TaskDraft) (service.Task, error) {
	f.record("UpdateTask")
	f.wait()
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	if err := f.requireAuth(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Title = draft.Title
			f.tasks[i].Description = draft.Description
			f.tasks[i].Priority = draft.Priority
			f.tasks[i].Status = draft.Status
			f.tasks[i].Completed = draft.Status == service.StatusCompleted
			f.tasks[i].UpdatedAt = time.Now().UTC()
			return f.tasks[i], nil
		}
	}
	return service.Task{}, &service.APIError{Status: 404, Detail: "Todo not found"}
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.record("ToggleTask")
	f.wait()
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}
	if err := f.requireAuth(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Completed = !f.tasks[i].Completed
			f.tasks[i].Status = service.StatusForCompleted(f.tasks[i].Completed)
			f.tasks[i].UpdatedAt = time.Now().UTC()
			return f.tasks[i], nil
		}
	}
	return service.Task{}, &service.APIError{Status: 404, Detail: "Todo not found"}
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	f.wait()
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	if err := f.requireAuth(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &service.APIError{Status: 404, Detail: "Todo not found"}
}

func (f *FakeService) requireAuth() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.authed {
		return fmt.Errorf("Session expired. Please log in again.: %w", service.ErrUnauthenticated)
	}
	return nil
}
