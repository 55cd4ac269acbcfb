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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, external_id, email, display_name, avatar_url, created_at, updated_at`

// CreateIfMissing inserts a user keyed by external id and returns the stored row.
//
// Two first logins for the same external identity can race. A plain
// SELECT-then-INSERT would let both see "no row" and both insert. Instead the
// INSERT carries ON CONFLICT(external_id) DO NOTHING: the loser of the race
// inserts nothing, and the re-read below returns the winner's row. The UNIQUE
// constraint is what makes this correct; the SELECT is only a read-back.
func (db *DB) CreateIfMissing(ctx context.Context, user *model.User) (*model.User, error) {
	ts := now()
	id := xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, email, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		id,
		user.ExternalID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		ts,
		ts,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting user (externalID=%s): %w", user.ExternalID, err)
	}

	return db.GetUserByExternalID(ctx, user.ExternalID)
}

// GetUserByExternalID retrieves a user by the sign-in provider's subject.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", externalID)
		}
		return nil, fmt.Errorf("sqlite: getting user by external id %s: %w", externalID, err)
	}
	return u, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
