package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

var _ repository.TaskRepository = (*DB)(nil)

const taskColumns = `id, user_id, project_id, title, description, estimated_hours,
	is_completed, completed_at, is_public, order_index, notes, copy_count,
	original_task_id, created_at, updated_at`

func scanTask(s scanner) (*model.Task, error) {
	var (
		t           model.Task
		description sql.NullString
		notes       sql.NullString
		original    sql.NullString
		completedAt sql.NullTime
	)
	if err := s.Scan(
		&t.ID, &t.UserID, &t.ProjectID, &t.Title, &description, &t.EstimatedHours,
		&t.IsCompleted, &completedAt, &t.IsPublic, &t.OrderIndex, &notes, &t.CopyCount,
		&original, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.Notes = stringPtr(notes)
	t.OriginalTaskID = stringPtr(original)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

// CreateTask inserts a task. The parent project must belong to task.UserID;
// otherwise nothing is written and NotFound is returned for the project.
func (db *DB) CreateTask(ctx context.Context, t *model.Task) error {
	ts := now()
	t.ID = xid.New().String()
	t.CreatedAt = ts
	t.UpdatedAt = ts

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM projects WHERE id = ? AND user_id = ?)`,
		t.ID,
		t.UserID,
		t.ProjectID,
		t.Title,
		nullString(t.Description),
		t.EstimatedHours,
		t.IsCompleted,
		nullTime(t.CompletedAt),
		t.IsPublic,
		t.OrderIndex,
		nullString(t.Notes),
		t.CopyCount,
		nullString(t.OriginalTaskID),
		t.CreatedAt,
		t.UpdatedAt,
		t.ProjectID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("project", t.ProjectID))
}

// GetTask returns the task only if userID owns it.
func (db *DB) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	t, err := scanTask(db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", taskID, err)
	}
	return t, nil
}

// ListTasks returns the project's tasks by order index, then creation time.
func (db *DB) ListTasks(ctx context.Context, userID, projectID string) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE project_id = ? AND user_id = ?
		 ORDER BY order_index ASC, created_at ASC, id ASC`,
		projectID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) NextOrderIndex(ctx context.Context, userID, projectID string) (int, error) {
	var next int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index), 0) + 1
		 FROM tasks
		 WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading next order index for project %s: %w", projectID, err)
	}
	return next, nil
}

// SaveTask writes the mutable fields of t back to its row.
func (db *DB) SaveTask(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, estimated_hours = ?, is_completed = ?,
		     completed_at = ?, is_public = ?, order_index = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title,
		nullString(t.Description),
		t.EstimatedHours,
		t.IsCompleted,
		nullTime(t.CompletedAt),
		t.IsPublic,
		t.OrderIndex,
		nullString(t.Notes),
		t.UpdatedAt,
		t.ID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving task %s: %w", t.ID, err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("task", t.ID))
}

// TogglePublic flips is_public. The is_completed = 1 predicate makes the
// completion check and the write a single statement; when no row matches, a
// re-read tells a missing task apart from an incomplete one.
func (db *DB) TogglePublic(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task *model.Task

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE tasks
			 SET is_public = 1 - is_public, updated_at = ?
			 WHERE id = ? AND user_id = ? AND is_completed = 1`,
			now(), taskID, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: toggling visibility of task %s: %w", taskID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}

		t, err := scanTask(tx.QueryRowContext(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID,
		))
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("task", taskID)
			}
			return fmt.Errorf("sqlite: re-reading task %s: %w", taskID, err)
		}
		if n == 0 {
			return apperror.DomainRule("only completed tasks may be published")
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (db *DB) DeleteTask(ctx context.Context, userID, taskID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", taskID, err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("task", taskID))
}

// ReorderTasks sets each task's order index to its position in orderedIDs.
// All writes share one transaction: if any id is missing, foreign, or in
// another project, nothing changes.
func (db *DB) ReorderTasks(ctx context.Context, userID, projectID string, orderedIDs []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE tasks SET order_index = ?, updated_at = ?
			 WHERE id = ? AND user_id = ? AND project_id = ?`,
		)
		if err != nil {
			return fmt.Errorf("sqlite: preparing reorder: %w", err)
		}
		defer stmt.Close()

		ts := now()
		for i, id := range orderedIDs {
			result, err := stmt.ExecContext(ctx, i, ts, id, userID, projectID)
			if err != nil {
				return fmt.Errorf("sqlite: reordering task %s: %w", id, err)
			}
			if err := rowsAffectedOrNotFound(result, apperror.NotFound("task", id)); err != nil {
				return err
			}
		}
		return nil
	})
}
