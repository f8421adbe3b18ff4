package domain

import "time"

// Note is a personal text note owned by exactly one user.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotePatch carries the fields of a partial note update. Nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}
