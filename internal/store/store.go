// Package store persists tasks in SQLite. It exposes the small CRUD
// contract the assistant core needs: insert-one returning the created
// record, update-by-id returning the updated record, delete-by-id, and
// filtered/sorted select.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"artemis/internal/task"
)

// ErrNotFound is returned when an id resolves to no task.
var ErrNotFound = errors.New("task not found")

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT '',
	assignees    TEXT NOT NULL DEFAULT '[]',
	start_date   TEXT,
	due_date     TEXT,
	effort       TEXT NOT NULL DEFAULT '',
	product_area TEXT NOT NULL DEFAULT '',
	"order"      INTEGER NOT NULL DEFAULT 0,
	depends_on   TEXT NOT NULL DEFAULT '[]',
	reporter     TEXT NOT NULL DEFAULT '',
	parent_id    TEXT,
	tags         TEXT NOT NULL DEFAULT '[]',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
`

// Store is the SQLite-backed task store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open initializes the SQLite database at the given path, creating the
// schema if needed. Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Debug("failed to enable sqlite foreign_keys", zap.Error(err))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("task store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const taskColumns = `id, title, description, status, priority, assignees,
	start_date, due_date, effort, product_area, "order", depends_on,
	reporter, parent_id, tags, created_at, updated_at`

// Insert stores a new task and returns the created record. The caller
// is responsible for id and order assignment.
func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority,
		marshalList(t.Assignees), nullIfEmpty(t.StartDate), nullIfEmpty(t.DueDate),
		t.Effort, t.ProductArea, t.Order, marshalList(t.DependsOn),
		t.Reporter, nullIfEmpty(t.ParentID), marshalList(t.Tags),
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Get fetches one task by id.
func (s *Store) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// List returns every task, ordered by status lane then lane position.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY status, "order"`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// Update applies a partial patch to the task with the given id and
// returns the updated record. Read-then-write; no optimistic locking.
func (s *Store) Update(ctx context.Context, id string, p *task.Patch) (task.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	updated := p.Apply(current)

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			assignees = ?, start_date = ?, due_date = ?, effort = ?,
			product_area = ?, "order" = ?, depends_on = ?, reporter = ?,
			parent_id = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		updated.Title, updated.Description, updated.Status, updated.Priority,
		marshalList(updated.Assignees), nullIfEmpty(updated.StartDate),
		nullIfEmpty(updated.DueDate), updated.Effort, updated.ProductArea,
		updated.Order, marshalList(updated.DependsOn), updated.Reporter,
		nullIfEmpty(updated.ParentID), marshalList(updated.Tags),
		updated.UpdatedAt.Format(time.RFC3339), id,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes a task and prunes references to it: the id is dropped
// from every dependsOn set and children lose their parentId. Dangling
// references never outlive the task they point at.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("clear parent references to %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, depends_on FROM tasks
		WHERE EXISTS (SELECT 1 FROM json_each(tasks.depends_on) WHERE json_each.value = ?)`, id)
	if err != nil {
		return fmt.Errorf("find dependents of %s: %w", id, err)
	}
	type dep struct {
		taskID string
		edges  []string
	}
	var dependents []dep
	for rows.Next() {
		var d dep
		var raw string
		if err := rows.Scan(&d.taskID, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("scan dependent: %w", err)
		}
		d.edges = unmarshalList(raw)
		dependents = append(dependents, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate dependents: %w", err)
	}

	for _, d := range dependents {
		kept := d.edges[:0]
		for _, e := range d.edges {
			if e != id {
				kept = append(kept, e)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET depends_on = ? WHERE id = ?`, marshalList(kept), d.taskID); err != nil {
			return fmt.Errorf("prune dependency edge from %s: %w", d.taskID, err)
		}
	}
	return nil
}

// NextOrderInStatus returns max(order)+1 within a status lane, 0 for an
// empty lane.
func (s *Store) NextOrderInStatus(ctx context.Context, status string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX("order"), -1) + 1 FROM tasks WHERE status = ?`, status).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("compute lane order for %q: %w", status, err)
	}
	return next, nil
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var t task.Task
	var assignees, dependsOn, tags string
	var startDate, dueDate, parentID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&assignees, &startDate, &dueDate, &t.Effort, &t.ProductArea,
		&t.Order, &dependsOn, &t.Reporter, &parentID, &tags,
		&createdAt, &updatedAt)
	if err != nil {
		return task.Task{}, err
	}

	t.Assignees = unmarshalList(assignees)
	t.DependsOn = unmarshalList(dependsOn)
	t.Tags = unmarshalList(tags)
	t.StartDate = startDate.String
	t.DueDate = dueDate.String
	t.ParentID = parentID.String
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return t, nil
}

func collectTasks(rows *sql.Rows) ([]task.Task, error) {
	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
