package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

var _ repository.CertificationRepository = (*DB)(nil)

const certificationColumns = `id, name, description, category, difficulty_level,
	estimated_period, passing_score, fee, is_active`

// ListActiveCertifications returns the active catalog ordered by difficulty,
// then category, then name.
func (db *DB) ListActiveCertifications(ctx context.Context) ([]model.Certification, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+certificationColumns+`
		 FROM certifications
		 WHERE is_active = 1
		 ORDER BY difficulty_level ASC, category ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing certifications: %w", err)
	}
	defer rows.Close()

	certs := make([]model.Certification, 0)
	for rows.Next() {
		var c model.Certification
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.Category, &c.DifficultyLevel,
			&c.EstimatedPeriod, &c.PassingScore, &c.Fee, &c.IsActive,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning certification row: %w", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating certifications: %w", err)
	}
	return certs, nil
}

// GetCertification returns one catalog entry, active or not.
func (db *DB) GetCertification(ctx context.Context, id string) (*model.Certification, error) {
	var c model.Certification
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+certificationColumns+` FROM certifications WHERE id = ?`, id,
	).Scan(
		&c.ID, &c.Name, &c.Description, &c.Category, &c.DifficultyLevel,
		&c.EstimatedPeriod, &c.PassingScore, &c.Fee, &c.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("certification", id)
		}
		return nil, fmt.Errorf("sqlite: getting certification %s: %w", id, err)
	}
	return &c, nil
}

// UpsertCertification inserts or replaces a catalog entry by id. Used by the
// seed command only; the request path never writes certifications.
func (db *DB) UpsertCertification(ctx context.Context, c *model.Certification) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO certifications (`+certificationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			difficulty_level = excluded.difficulty_level,
			estimated_period = excluded.estimated_period,
			passing_score = excluded.passing_score,
			fee = excluded.fee,
			is_active = excluded.is_active`,
		c.ID, c.Name, c.Description, c.Category, c.DifficultyLevel,
		c.EstimatedPeriod, c.PassingScore, c.Fee, c.IsActive,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting certification %s: %w", c.ID, err)
	}
	return nil
}
