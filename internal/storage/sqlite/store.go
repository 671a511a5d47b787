package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"taskmind/internal/models"
)

// Store keeps tasks in a local SQLite database. It is the default backend
// when no remote record store is configured.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes the SQLite store at the given path.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	return &Store{db: conn, logger: logger}, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureSchema creates the tasks table if it is absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT 'other',
            priority TEXT NOT NULL DEFAULT 'medium',
            completed INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            due_date DATETIME,
            owner TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_category ON tasks(owner, category);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// List returns the owner's tasks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, category, priority, completed, created_at, due_date, owner
        FROM tasks WHERE owner = ? ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var (
			t   models.Task
			due sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Completed, &t.CreatedAt, &due, &t.Owner); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		t.Normalize()
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create inserts a new task.
func (s *Store) Create(ctx context.Context, t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}

	var due any
	if t.DueDate != nil {
		due = *t.DueDate
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, title, description, category, priority, completed, created_at, due_date, owner)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), string(t.Category), string(t.Priority), t.Completed, t.CreatedAt, due, t.Owner)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update applies a partial field update to the owner's task.
func (s *Store) Update(ctx context.Context, owner, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	allowed := map[string]struct{}{
		"title": {}, "description": {}, "category": {}, "priority": {}, "completed": {}, "due_date": {},
	}

	var (
		sets []string
		args []any
	)
	for col, val := range fields {
		if _, ok := allowed[col]; !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, owner)

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner = ?`, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

// Delete removes the owner's task by id.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}
