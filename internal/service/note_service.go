package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

// NoteInput is the payload for creating a note.
type NoteInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// NoteUpdateInput carries a partial update. Absent fields stay nil.
type NoteUpdateInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// NoteService manages notes on behalf of an authenticated user.
type NoteService interface {
	Create(ctx context.Context, userID int64, in NoteInput) (*domain.Note, error)
	List(ctx context.Context, userID int64) ([]domain.Note, error)
	Get(ctx context.Context, userID, id int64) (*domain.Note, error)
	Update(ctx context.Context, userID, id int64, in NoteUpdateInput) (*domain.Note, error)
	Delete(ctx context.Context, userID, id int64) error
}

// NoteOption customizes a NoteService.
type NoteOption func(*noteService)

// WithNoteClock replaces time.Now for note timestamps.
func WithNoteClock(now func() time.Time) NoteOption {
	return func(s *noteService) {
		if now != nil {
			s.now = now
		}
	}
}

type noteService struct {
	notes repository.NoteRepository
	now   func() time.Time
}

func NewNoteService(notes repository.NoteRepository, opts ...NoteOption) NoteService {
	s := &noteService{
		notes: notes,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *noteService) Create(ctx context.Context, userID int64, in NoteInput) (*domain.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in).orNil(); err != nil {
		return nil, err
	}

	now := s.now()
	note := &domain.Note{
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *noteService) List(ctx context.Context, userID int64) ([]domain.Note, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *noteService) Get(ctx context.Context, userID, id int64) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	if err := RequireOwner(note.UserID, userID); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) Update(ctx context.Context, userID, id int64, in NoteUpdateInput) (*domain.Note, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}

	updated, err := s.notes.Update(ctx, id, userID, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}
	if !updated {
		return nil, fmt.Errorf("update note %d: no rows affected", id)
	}

	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload note %d: %w", id, err)
	}
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	deleted, err := s.notes.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("delete note %d: no rows affected", id)
	}
	return nil
}

func buildPatch(in NoteUpdateInput) (domain.NotePatch, error) {
	var patch domain.NotePatch
	verr := &ValidationError{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			verr.Add("title", "title cannot be empty")
		case !validTitle(title):
			verr.Add("title", fieldMessages["title.max"])
		default:
			patch.Title = &title
		}
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			verr.Add("content", "content cannot be empty")
		} else {
			patch.Content = &content
		}
	}

	if err := verr.orNil(); err != nil {
		return domain.NotePatch{}, err
	}
	return patch, nil
}
