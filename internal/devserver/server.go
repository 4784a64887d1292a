package devserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"taskdeck/internal/service"
)

// sessionCookie is the cookie carrying the session token.
const sessionCookie = "access_token"

// Server serves the task API over HTTP. Sessions are opaque tokens held in
// memory; they do not survive a server restart.
type Server struct {
	store  Store
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[string]string // token -> user id
}

// New creates a server over the given store. A nil logger discards logs.
func New(store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(nullWriter{}, "", 0)
	}
	return &Server{
		store:    store,
		logger:   logger,
		sessions: make(map[string]string),
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/api/v1/auth/logout", s.handleLogout).Methods("POST")

	// Everything below requires a live session cookie.
	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireSession)
	protected.HandleFunc("/api/v1/auth/me", s.handleMe).Methods("GET")
	protected.HandleFunc("/api/v1/todos/", s.handleListTasks).Methods("GET")
	protected.HandleFunc("/api/v1/todos/", s.handleCreateTask).Methods("POST")
	protected.HandleFunc("/api/v1/todos/{id}", s.handleUpdateTask).Methods("PUT")
	protected.HandleFunc("/api/v1/todos/{id}", s.handleDeleteTask).Methods("DELETE")
	protected.HandleFunc("/api/v1/todos/{id}/toggle", s.handleToggleTask).Methods("POST")

	return r
}

// requireSession rejects requests without a valid session cookie before they
// reach a handler.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		r.Header.Set("X-User-ID", userID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.sessions[cookie.Value]
	return userID, ok
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now().UTC()
	user := service.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		s.logger.Printf("register: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, hash, err := s.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		s.logger.Printf("login: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = user.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, service.LoginResult{
		Message: "Login successful",
		UserID:  user.ID,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.UserByID(r.Context(), r.Header.Get("X-User-ID"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), r.Header.Get("X-User-ID"))
	if err != nil {
		s.logger.Printf("list tasks: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var draft service.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	if draft.Priority == "" {
		draft.Priority = service.PriorityMedium
	}
	if draft.Status == "" {
		draft.Status = service.StatusTodo
	}

	now := time.Now().UTC()
	task := service.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Completed:   draft.Status == service.StatusCompleted,
		Priority:    draft.Priority,
		Status:      draft.Status,
		UserID:      r.Header.Get("X-User-ID"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		s.logger.Printf("create task: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	id := mux.Vars(r)["id"]

	task, err := s.store.GetTask(r.Context(), userID, id)
	if err != nil {
		writeTaskError(w, s.logger, "update task", err)
		return
	}

	var draft service.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if draft.Title != "" {
		task.Title = strings.TrimSpace(draft.Title)
	}
	task.Description = draft.Description
	if draft.Priority != "" {
		task.Priority = draft.Priority
	}
	if draft.Status != "" {
		task.Status = draft.Status
		task.Completed = draft.Status == service.StatusCompleted
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		writeTaskError(w, s.logger, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	id := mux.Vars(r)["id"]

	task, err := s.store.GetTask(r.Context(), userID, id)
	if err != nil {
		writeTaskError(w, s.logger, "toggle task", err)
		return
	}
	task.Completed = !task.Completed
	task.Status = service.StatusForCompleted(task.Completed)
	task.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		writeTaskError(w, s.logger, "toggle task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteTask(r.Context(), userID, id); err != nil {
		writeTaskError(w, s.logger, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeTaskError(w http.ResponseWriter, logger *log.Logger, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	logger.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
