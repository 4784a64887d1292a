// Package devserver implements a local task API server speaking the same
// wire contract the client targets, for development and integration tests.
package devserver

import (
	"context"
	"errors"
	"sort"
	"sync"

	"taskdeck/internal/service"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Store persists users and tasks.
type Store interface {
	CreateUser(ctx context.Context, user service.User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (service.User, string, error)
	UserByID(ctx context.Context, id string) (service.User, error)

	ListTasks(ctx context.Context, userID string) ([]service.Task, error)
	GetTask(ctx context.Context, userID, id string) (service.Task, error)
	CreateTask(ctx context.Context, task service.Task) error
	UpdateTask(ctx context.Context, task service.Task) error
	DeleteTask(ctx context.Context, userID, id string) error

	Close() error
}

// MemoryStore is an in-memory Store. Used by tests and as the default
// backend when no database path is given.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]service.User // by id
	hashes map[string]string       // user id -> password hash
	emails map[string]string       // email -> user id
	tasks  map[string]service.Task // by id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]service.User),
		hashes: make(map[string]string),
		emails: make(map[string]string),
		tasks:  make(map[string]service.Task),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user service.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[user.Email]; ok {
		return ErrEmailTaken
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (service.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return service.User{}, "", ErrNotFound
	}
	return s.users[id], s.hashes[id], nil
}

func (s *MemoryStore) UserByID(ctx context.Context, id string) (service.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return service.User{}, ErrNotFound
	}
	return user, nil
}

// ListTasks returns the user's tasks newest first.
func (s *MemoryStore) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []service.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (s *MemoryStore) GetTask(ctx context.Context, userID, id string) (service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return service.Task{}, ErrNotFound
	}
	return task, nil
}

func (s *MemoryStore) CreateTask(ctx context.Context, task service.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, task service.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tasks[task.ID]
	if !ok || prev.UserID != task.UserID {
		return ErrNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
