package repository

import (
	"context"
	"time"

	"notes-api/internal/domain"
)

// NoteRepository exposes persistence operations for notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Note, error)
	// Get is not scoped by owner; callers apply the ownership check.
	Get(ctx context.Context, id int64) (*domain.Note, error)
	Update(ctx context.Context, id, userID int64, patch domain.NotePatch, now time.Time) (bool, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
}
