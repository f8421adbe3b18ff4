package repository

import (
	"context"
	"time"

	"notes-api/internal/domain"
)

// SessionRepository persists bearer sessions.
type SessionRepository interface {
	// ReplaceForUser deletes every session of session.UserID and inserts session atomically.
	ReplaceForUser(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// Touch moves expires_at of a session that is still live at now. It reports whether a row changed.
	Touch(ctx context.Context, token string, now, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
