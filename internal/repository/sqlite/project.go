package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

var _ repository.ProjectRepository = (*DB)(nil)

// projectSelect joins the certification summary onto every project read.
const projectSelect = `
	SELECT p.id, p.user_id, p.certification_id, p.name, p.target_date, p.status,
	       p.progress_percentage, p.total_tasks, p.completed_tasks, p.total_estimated_hours,
	       p.studied_hours, p.is_public, p.created_at, p.updated_at,
	       c.id, c.name, c.description, c.category, c.difficulty_level, c.estimated_period,
	       u.display_name
	FROM projects p
	JOIN certifications c ON c.id = p.certification_id
	JOIN users u ON u.id = p.user_id`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*model.Project, error) {
	var (
		p          model.Project
		cert       model.CertificationSummary
		status     string
		targetDate sql.NullTime
		total      sql.NullInt64
		completed  sql.NullInt64
		estimated  sql.NullInt64
	)
	if err := s.Scan(
		&p.ID, &p.UserID, &p.CertificationID, &p.Name, &targetDate, &status,
		&p.ProgressPercentage, &total, &completed, &estimated,
		&p.StudiedHours, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
		&cert.ID, &cert.Name, &cert.Description, &cert.Category, &cert.DifficultyLevel, &cert.EstimatedPeriod,
		&p.OwnerName,
	); err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	p.TargetDate = timePtr(targetDate)
	p.TotalTasks = intPtr(total)
	p.CompletedTasks = intPtr(completed)
	p.TotalEstimatedHours = intPtr(estimated)
	p.Certification = &cert
	return &p, nil
}

// CreateProject inserts a project and fills in its ID and timestamps.
func (db *DB) CreateProject(ctx context.Context, p *model.Project) error {
	ts := now()
	p.ID = xid.New().String()
	p.CreatedAt = ts
	p.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, certification_id, name, target_date, status,
		                       progress_percentage, studied_hours, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		p.CertificationID,
		p.Name,
		nullTime(p.TargetDate),
		string(p.Status),
		p.ProgressPercentage,
		p.StudiedHours,
		p.IsPublic,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}
	return nil
}

// GetProject returns the project only if userID owns it.
func (db *DB) GetProject(ctx context.Context, userID, projectID string) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx,
		projectSelect+` WHERE p.id = ? AND p.user_id = ?`, projectID, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", projectID)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", projectID, err)
	}
	return p, nil
}

// ListProjects returns the user's projects, newest first.
func (db *DB) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	return db.queryProjects(ctx,
		projectSelect+` WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC`, userID,
	)
}

func (db *DB) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies the non-nil fields of update.
//
// The owner check lives in the WHERE clause of the UPDATE itself, so there is
// no window between "is this yours?" and the write.
func (db *DB) UpdateProject(ctx context.Context, userID, projectID string, update model.ProjectUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{now()}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.ClearTargetDate {
		sets = append(sets, "target_date = NULL")
	} else if update.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, update.TargetDate.UTC())
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.StudiedHours != nil {
		sets = append(sets, "studied_hours = ?")
		args = append(args, *update.StudiedHours)
	}
	if update.IsPublic != nil {
		sets = append(sets, "is_public = ?")
		args = append(args, *update.IsPublic)
	}

	args = append(args, projectID, userID)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", projectID, err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("project", projectID))
}

// DeleteProject removes the project (and, by cascade, its tasks and activities).
func (db *DB) DeleteProject(ctx context.Context, userID, projectID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND user_id = ?`, projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", projectID, err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("project", projectID))
}

// RecomputeProgress counts the project's tasks and writes the derived fields.
// The count and the write share one transaction so a concurrent task change
// cannot slip between them.
func (db *DB) RecomputeProgress(ctx context.Context, userID, projectID string) (*model.Progress, error) {
	var progress model.Progress

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return recomputeProgressTx(ctx, tx, userID, projectID, &progress)
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func recomputeProgressTx(ctx context.Context, tx *sql.Tx, userID, projectID string, out *model.Progress) error {
	var total, completed, hours int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN is_completed = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(estimated_hours), 0)
		 FROM tasks
		 WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&total, &completed, &hours)
	if err != nil {
		return fmt.Errorf("sqlite: counting tasks for project %s: %w", projectID, err)
	}

	progress := model.NewProgress(total, completed, hours)

	result, err := tx.ExecContext(ctx,
		`UPDATE projects
		 SET total_tasks = ?, completed_tasks = ?, progress_percentage = ?,
		     total_estimated_hours = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		progress.TotalTasks,
		progress.CompletedTasks,
		progress.ProgressPercentage,
		progress.TotalEstimatedHours,
		now(),
		projectID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing progress for project %s: %w", projectID, err)
	}
	if err := rowsAffectedOrNotFound(result, apperror.NotFound("project", projectID)); err != nil {
		return err
	}

	*out = progress
	return nil
}
