package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

var _ repository.PublicRepository = (*DB)(nil)

// ListPublicProjects returns the public projects studying certificationID,
// newest first. No owner scoping: these rows are readable by anyone.
func (db *DB) ListPublicProjects(ctx context.Context, certificationID string) ([]model.Project, error) {
	return db.queryProjects(ctx,
		projectSelect+` WHERE p.certification_id = ? AND p.is_public = 1
		 ORDER BY p.created_at DESC, p.id DESC`,
		certificationID,
	)
}

func (db *DB) GetPublicProject(ctx context.Context, projectID string) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx,
		projectSelect+` WHERE p.id = ? AND p.is_public = 1`, projectID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", projectID)
		}
		return nil, fmt.Errorf("sqlite: getting public project %s: %w", projectID, err)
	}
	return p, nil
}

// ListPublicTasks returns only tasks flagged public. The projection leaves out
// the owner id and private notes.
func (db *DB) ListPublicTasks(ctx context.Context, projectID string) ([]model.PublicTask, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.project_id, t.title, t.description, t.estimated_hours,
		        t.is_completed, t.completed_at, t.order_index, t.created_at
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.project_id = ? AND t.is_public = 1 AND p.is_public = 1
		 ORDER BY t.order_index ASC, t.created_at ASC, t.id ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing public tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.PublicTask, 0)
	for rows.Next() {
		var (
			t           model.PublicTask
			description sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.Title, &description, &t.EstimatedHours,
			&t.IsCompleted, &completedAt, &t.OrderIndex, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning public task row: %w", err)
		}
		t.Description = stringPtr(description)
		t.CompletedAt = timePtr(completedAt)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating public tasks: %w", err)
	}
	return tasks, nil
}
