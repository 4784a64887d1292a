package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"taskdeck/internal/service"
)

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  completed INTEGER NOT NULL DEFAULT 0,
  priority TEXT NOT NULL DEFAULT 'medium',
  status TEXT NOT NULL DEFAULT 'todo',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user service.User, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, passwordHash, user.FirstName, user.LastName,
		user.CreatedAt.UnixNano(), user.UpdatedAt.UnixNano(),
	)
	if err != nil {
		// UNIQUE violation on email
		var exists int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, user.Email)
		if scanErr := row.Scan(&exists); scanErr == nil && exists > 0 {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (service.User, string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users WHERE email = ?`, email)
	var user service.User
	var hash string
	var created, updated int64
	err := row.Scan(&user.ID, &user.Email, &hash, &user.FirstName, &user.LastName, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return service.User{}, "", ErrNotFound
	}
	if err != nil {
		return service.User{}, "", fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = time.Unix(0, created)
	user.UpdatedAt = time.Unix(0, updated)
	return user, hash, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (service.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, created_at, updated_at
		FROM users WHERE id = ?`, id)
	var user service.User
	var created, updated int64
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return service.User{}, ErrNotFound
	}
	if err != nil {
		return service.User{}, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = time.Unix(0, created)
	user.UpdatedAt = time.Unix(0, updated)
	return user, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, completed, priority, status, created_at, updated_at
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []service.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) GetTask(ctx context.Context, userID, id string) (service.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, completed, priority, status, created_at, updated_at
		FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, ErrNotFound
	}
	return task, err
}

func (s *SQLiteStore) CreateTask(ctx context.Context, task service.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, completed, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, boolToInt(task.Completed),
		string(task.Priority), string(task.Status),
		task.CreatedAt.UnixNano(), task.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task service.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, completed = ?, priority = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, boolToInt(task.Completed),
		string(task.Priority), string(task.Status), task.UpdatedAt.UnixNano(),
		task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (service.Task, error) {
	var task service.Task
	var completed int
	var priority, status string
	var created, updated int64
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&completed, &priority, &status, &created, &updated)
	if err != nil {
		return service.Task{}, err
	}
	task.Completed = completed != 0
	task.Priority = service.Priority(priority)
	task.Status = service.Status(status)
	task.CreatedAt = time.Unix(0, created)
	task.UpdatedAt = time.Unix(0, updated)
	return task, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
