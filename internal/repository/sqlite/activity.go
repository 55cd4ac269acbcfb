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

var _ repository.ActivityRepository = (*DB)(nil)

// CreateActivity inserts a feed post. The project must belong to the poster.
func (db *DB) CreateActivity(ctx context.Context, a *model.Activity) error {
	a.ID = xid.New().String()
	a.CreatedAt = now()
	a.LikesCount = 0

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, project_id, completed_task_title, message, likes_count, created_at)
		 SELECT ?, ?, ?, ?, ?, 0, ?
		 WHERE EXISTS (SELECT 1 FROM projects WHERE id = ? AND user_id = ?)`,
		a.ID,
		a.UserID,
		a.ProjectID,
		nullString(a.CompletedTaskTitle),
		nullString(a.Message),
		a.CreatedAt,
		a.ProjectID,
		a.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating activity: %w", err)
	}
	return rowsAffectedOrNotFound(result, apperror.NotFound("project", a.ProjectID))
}

// ListActivities returns targetUserID's posts, newest first, with is_liked
// computed for viewerID.
func (db *DB) ListActivities(ctx context.Context, viewerID, targetUserID string) ([]model.Activity, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.project_id, a.completed_task_title, a.message,
		        a.likes_count, a.created_at,
		        u.display_name, u.avatar_url, p.name,
		        EXISTS (SELECT 1 FROM likes l WHERE l.activity_id = a.id AND l.user_id = ?)
		 FROM activities a
		 JOIN users u ON u.id = a.user_id
		 JOIN projects p ON p.id = a.project_id
		 WHERE a.user_id = ?
		 ORDER BY a.created_at DESC, a.id DESC`,
		viewerID, targetUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities: %w", err)
	}
	defer rows.Close()

	activities := make([]model.Activity, 0)
	for rows.Next() {
		var (
			a       model.Activity
			title   sql.NullString
			message sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ProjectID, &title, &message,
			&a.LikesCount, &a.CreatedAt,
			&a.PosterName, &a.PosterAvatar, &a.ProjectName,
			&a.IsLiked,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity row: %w", err)
		}
		a.CompletedTaskTitle = stringPtr(title)
		a.Message = stringPtr(message)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating activities: %w", err)
	}
	return activities, nil
}

// ToggleLike adds the viewer's like if absent, removes it otherwise, and
// rewrites likes_count from the like rows. Membership and counter change in
// the same transaction, so the counter always equals COUNT(*) of likes.
func (db *DB) ToggleLike(ctx context.Context, viewerID, activityID string) (*model.LikeResult, error) {
	res := &model.LikeResult{ActivityID: activityID}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM activities WHERE id = ?)`, activityID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking activity %s: %w", activityID, err)
		}
		if !exists {
			return apperror.NotFound("activity", activityID)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE activity_id = ? AND user_id = ?`, activityID, viewerID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: removing like: %w", err)
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}

		if removed == 0 {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO likes (id, activity_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
				xid.New().String(), activityID, viewerID, now(),
			)
			if err != nil {
				return fmt.Errorf("sqlite: adding like: %w", err)
			}
			res.Liked = true
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE activities
			 SET likes_count = (SELECT COUNT(*) FROM likes WHERE activity_id = ?)
			 WHERE id = ?`,
			activityID, activityID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating likes count: %w", err)
		}

		return tx.QueryRowContext(ctx,
			`SELECT likes_count FROM activities WHERE id = ?`, activityID,
		).Scan(&res.LikesCount)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
