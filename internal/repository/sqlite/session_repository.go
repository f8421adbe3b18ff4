package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) ReplaceForUser(ctx context.Context, session *domain.Session) error {
	return withTx(ctx, r.db, func(tx dbtx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, session.UserID); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (token, user_id, expires_at, created_at)
VALUES (?, ?, ?, ?)`,
			session.Token,
			session.UserID,
			session.ExpiresAt.UTC(),
			session.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, expires_at, created_at
FROM sessions
WHERE token = ?
LIMIT 1`, token)

	var session domain.Session
	if err := row.Scan(&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string, now, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE sessions
SET expires_at = ?
WHERE token = ? AND expires_at > ?`,
		expiresAt.UTC(),
		token,
		now.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("renew session: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return rowsAffected(res)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return rowsAffected(res)
}
