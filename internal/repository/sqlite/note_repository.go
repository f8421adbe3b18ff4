package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (int64, error) {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	note.UpdatedAt = note.CreatedAt

	res, err := r.db.ExecContext(ctx, `
INSERT INTO notes (user_id, title, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		note.UserID,
		note.Title,
		note.Content,
		note.CreatedAt.UTC(),
		note.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("note last insert id: %w", err)
	}
	note.ID = id
	return id, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, content, created_at, updated_at
FROM notes
WHERE user_id = ?
ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Get(ctx context.Context, id int64) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, content, created_at, updated_at
FROM notes
WHERE id = ?
LIMIT 1`, id)
	return scanNote(row)
}

func (r *NoteRepository) Update(ctx context.Context, id, userID int64, patch domain.NotePatch, now time.Time) (bool, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if len(sets) == 0 {
		return false, nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now.UTC(), id, userID)

	query := fmt.Sprintf(`UPDATE notes SET %s WHERE id = ? AND user_id = ?`, strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update note: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanNote(scanner interface {
	Scan(dest ...any) error
}) (*domain.Note, error) {
	var note domain.Note
	if err := scanner.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	return &note, nil
}
