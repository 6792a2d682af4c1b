package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Task is a synchronized task record. The payload fields (Title through
// IsDeleted) are opaque to the sync logic; Version and ModifiedAt are the
// bookkeeping the arbiter and pull cursor operate on.
type Task struct {
	UserID      string
	ID          string
	Title       string
	Notes       *string
	DueDate     *time.Time
	Priority    *string
	CompletedAt *time.Time
	IsDeleted   bool
	Version     int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

const taskColumns = `user_id, id, title, notes, due_date, priority, completed_at, is_deleted, version, created_at, modified_at`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	t := &Task{}
	var notes, priority sql.NullString
	var dueDate, completedAt sql.NullInt64
	var createdAt, modifiedAt int64
	err := row.Scan(
		&t.UserID, &t.ID, &t.Title, &notes, &dueDate, &priority,
		&completedAt, &t.IsDeleted, &t.Version, &createdAt, &modifiedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if priority.Valid {
		t.Priority = &priority.String
	}
	t.DueDate = fromUsecPtr(dueDate)
	t.CompletedAt = fromUsecPtr(completedAt)
	t.CreatedAt = fromUsec(createdAt)
	t.ModifiedAt = fromUsec(modifiedAt)
	return t, nil
}

// TaskForUpdate returns the task with the given id owned by userID, or nil
// if no such row exists for that owner. Under postgres the row is locked
// for the remainder of the transaction so the version check and the upsert
// that follows are one atomic step; sqlite gets the same guarantee from its
// single write connection.
func (t *Tx) TaskForUpdate(userID, id string) (*Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? AND id = ?`
	if t.dialect == DriverPostgres {
		q += ` FOR UPDATE`
	}
	task, err := scanTask(t.tx.QueryRow(t.rebind(q), userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// UpsertTask inserts the task or overwrites the existing row for the same
// (user_id, id). created_at is preserved on update.
func (t *Tx) UpsertTask(task *Task) error {
	_, err := t.tx.Exec(t.rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = excluded.title,
			notes = excluded.notes,
			due_date = excluded.due_date,
			priority = excluded.priority,
			completed_at = excluded.completed_at,
			is_deleted = excluded.is_deleted,
			version = excluded.version,
			modified_at = excluded.modified_at`),
		task.UserID, task.ID, task.Title, task.Notes, usecPtr(task.DueDate),
		task.Priority, usecPtr(task.CompletedAt), task.IsDeleted, task.Version,
		task.CreatedAt.UnixMicro(), task.ModifiedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", task.ID, err)
	}
	return nil
}

// TasksModifiedAfter returns the owner's tasks, tombstones included. With a
// non-nil since, only rows with modified_at strictly greater are returned.
// Ordered newest first; id breaks ties within a batch's shared timestamp.
func (t *Tx) TasksModifiedAfter(userID string, since *time.Time) ([]*Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if since != nil {
		q += ` AND modified_at > ?`
		args = append(args, since.UnixMicro())
	}
	q += ` ORDER BY modified_at DESC, id ASC`

	rows, err := t.tx.Query(t.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan tasks: iterate: %w", err)
	}
	return tasks, nil
}

// TaskStats returns the owner's live task count and the newest modified_at
// across all rows, tombstones included. The watermark covers deletions so a
// client can tell whether anything changed since its last pull.
func (t *Tx) TaskStats(userID string) (int64, *time.Time, error) {
	var count int64
	err := t.tx.QueryRow(
		t.rebind(`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND is_deleted = FALSE`),
		userID,
	).Scan(&count)
	if err != nil {
		return 0, nil, fmt.Errorf("count tasks: %w", err)
	}

	var last sql.NullInt64
	err = t.tx.QueryRow(
		t.rebind(`SELECT MAX(modified_at) FROM tasks WHERE user_id = ?`),
		userID,
	).Scan(&last)
	if err != nil {
		return 0, nil, fmt.Errorf("last modified: %w", err)
	}
	return count, fromUsecPtr(last), nil
}
