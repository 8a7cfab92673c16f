package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

// ErrInvalidUser is returned by Replace for a nil user or an empty uid.
var ErrInvalidUser = errors.New("session user must have a uid")

// SQLiteRepository stores the active session. Replace runs in its own
// transaction, so db must be a *sql.DB (not a *sql.Tx).
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT uid, email, role, email_verified FROM active_session ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&u.UID, &u.Email, &u.Role, &u.EmailVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, user *models.User) error {
	if user == nil || user.UID == "" {
		return ErrInvalidUser
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM active_session`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO active_session (uid, email, role, email_verified, saved_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			user.UID, user.Email, user.Role, user.EmailVerified,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("replace active session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM active_session`); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}
