package devserver

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"tasksync/internal/task"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT    NOT NULL UNIQUE,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	due_date    TEXT,
	created_at  TEXT    NOT NULL
);
`

// SQLiteStore persists tasks in a SQLite database. Rows are returned in
// insertion order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// schema migrations. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run schema migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// List returns every task in insertion order.
func (s *SQLiteStore) List() ([]task.Task, error) {
	const q = `
		SELECT id, title, description, completed, due_date, created_at
		FROM tasks
		ORDER BY seq ASC
	`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Get returns the task with the given id.
func (s *SQLiteStore) Get(id string) (task.Task, error) {
	const q = `
		SELECT id, title, description, completed, due_date, created_at
		FROM tasks
		WHERE id = ?
	`
	t, err := scanTask(s.db.QueryRow(q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// Create inserts t. The caller assigns ID and CreatedAt.
func (s *SQLiteStore) Create(t task.Task) error {
	const q = `
		INSERT INTO tasks (id, title, description, completed, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(q,
		t.ID,
		t.Title,
		t.Description,
		boolInt(t.Completed),
		formatOptional(t.DueDate),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update replaces every mutable field of the task with t.ID. created_at is
// never changed.
func (s *SQLiteStore) Update(t task.Task) error {
	const q = `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, due_date = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(q,
		t.Title,
		t.Description,
		boolInt(t.Completed),
		formatOptional(t.DueDate),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(result, t.ID)
}

// Delete removes the task with the given id.
func (s *SQLiteStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		t         task.Task
		completed int64
		due       sql.NullString
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &completed, &due, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, err
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if due.Valid && due.String != "" {
		d := parseTime(due.String)
		t.DueDate = &d
	}
	t.Completed = completed != 0
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return task.FormatTime(t)
}

func formatOptional(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: task.FormatTime(*t), Valid: true}
}

// parseTime returns zero time on empty or invalid input.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := task.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
