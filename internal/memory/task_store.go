package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
)

// TaskStore is the backlog persistence contract used by the CLI and planner.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	GetTask(ctx context.Context, id int64) (task.Task, error)
	UpdateTask(ctx context.Context, id int64, patch task.Patch) (task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

var _ TaskStore = (*SQLiteStore)(nil)

const taskColumns = `id, title, description, priority, estimated_minutes, deadline, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(sc rowScanner) (task.Task, error) {
	var (
		t         task.Task
		priority  string
		deadline  sql.NullString
		createdAt string
	)
	if err := sc.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.EstimatedMinutes, &deadline, &createdAt); err != nil {
		return task.Task{}, err
	}
	t.Priority = task.Priority(priority)

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return task.Task{}, err
	}
	if deadline.Valid && deadline.String != "" {
		d, err := parseTime(deadline.String)
		if err != nil {
			return task.Task{}, err
		}
		t.Deadline = &d
	}
	return t, nil
}

// ListTasks returns every task in insertion order. Callers rank with task.Rank.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask inserts t and returns it with its assigned ID and creation time.
// A zero CreatedAt is set to now.
func (s *SQLiteStore) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.EstimatedMinutes <= 0 {
		t.EstimatedMinutes = task.DefaultEstimatedMinutes
	}
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, priority, estimated_minutes, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Title, t.Description, string(t.Priority), t.EstimatedMinutes, nullTimeString(t.Deadline),
		formatTime(t.CreatedAt), formatTime(now))
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task %q: %w", t.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, fmt.Errorf("read task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask returns the task with the given ID or ErrNotFound.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return task.Task{}, notFound(err, fmt.Sprintf("task %d", id))
	}
	return t, nil
}

// UpdateTask applies a partial update inside a transaction and returns the
// stored result.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, patch task.Patch) (task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return task.Task{}, notFound(err, fmt.Sprintf("task %d", id))
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return task.Task{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, estimated_minutes = ?, deadline = ?, updated_at = ?
		WHERE id = ?
	`, updated.Title, updated.Description, string(updated.Priority), updated.EstimatedMinutes,
		nullTimeString(updated.Deadline), formatTime(time.Now()), id)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return task.Task{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// DeleteTask removes a task. Plans already saved keep their copy of it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}
