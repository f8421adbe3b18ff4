package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"notes-api/internal/repository/sqlite"
)

type NoteServiceSuite struct {
	suite.Suite
	clock *testClock
	notes NoteService
	ana   int64
	bob   int64
}

func (s *NoteServiceSuite) SetupTest() {
	db := newTestDB(s.T())
	s.clock = newTestClock()
	s.notes = NewNoteService(sqlite.NewNoteRepository(db), WithNoteClock(s.clock.Now))
	s.ana = seedUser(s.T(), db, "ana@example.com")
	s.bob = seedUser(s.T(), db, "bob@example.com")
}

func TestNoteService(t *testing.T) {
	suite.Run(t, new(NoteServiceSuite))
}

func (s *NoteServiceSuite) TestCreateTrimsAndStamps() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "  Groceries ", Content: " milk \n"})
	s.Require().NoError(err)
	s.NotZero(note.ID)
	s.Equal("Groceries", note.Title)
	s.Equal("milk", note.Content)
	s.Equal(s.ana, note.UserID)
	s.True(note.CreatedAt.Equal(s.clock.Now()))
	s.True(note.UpdatedAt.Equal(s.clock.Now()))
}

func (s *NoteServiceSuite) TestCreateValidation() {
	_, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "   ", Content: ""})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("title is required", verr.Fields["title"])
	s.Equal("content is required", verr.Fields["content"])

	_, err = s.notes.Create(context.Background(), s.ana, NoteInput{Title: strings.Repeat("a", 256), Content: "x"})
	s.Require().ErrorAs(err, &verr)
	s.Equal("title must be between 1 and 255 characters", verr.Fields["title"])

	_, err = s.notes.Create(context.Background(), s.ana, NoteInput{Title: strings.Repeat("é", 255), Content: "x"})
	s.NoError(err, "title length counts characters, not bytes")
}

func (s *NoteServiceSuite) TestListIsScopedAndOrdered() {
	first, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "first", Content: "1"})
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	second, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "second", Content: "2"})
	s.Require().NoError(err)
	_, err = s.notes.Create(context.Background(), s.bob, NoteInput{Title: "bob", Content: "b"})
	s.Require().NoError(err)

	list, err := s.notes.List(context.Background(), s.ana)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second.ID, list[0].ID)
	s.Equal(first.ID, list[1].ID)

	// touching the older note moves it to the front
	s.clock.Advance(time.Minute)
	title := "first, edited"
	_, err = s.notes.Update(context.Background(), s.ana, first.ID, NoteUpdateInput{Title: &title})
	s.Require().NoError(err)

	list, err = s.notes.List(context.Background(), s.ana)
	s.Require().NoError(err)
	s.Equal(first.ID, list[0].ID)
}

func (s *NoteServiceSuite) TestListEmpty() {
	list, err := s.notes.List(context.Background(), s.ana)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

func (s *NoteServiceSuite) TestGetNotFoundAndForbidden() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "mine", Content: "secret"})
	s.Require().NoError(err)

	got, err := s.notes.Get(context.Background(), s.ana, note.ID)
	s.Require().NoError(err)
	s.Equal("secret", got.Content)

	_, err = s.notes.Get(context.Background(), s.bob, note.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.notes.Get(context.Background(), s.ana, note.ID+1000)
	s.ErrorIs(err, ErrNoteNotFound)
}

func (s *NoteServiceSuite) TestUpdatePartial() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "title", Content: "body"})
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	content := " new body "
	updated, err := s.notes.Update(context.Background(), s.ana, note.ID, NoteUpdateInput{Content: &content})
	s.Require().NoError(err)
	s.Equal("title", updated.Title)
	s.Equal("new body", updated.Content)
	s.True(updated.CreatedAt.Equal(note.CreatedAt))
	s.True(updated.UpdatedAt.Equal(s.clock.Now()))
}

func (s *NoteServiceSuite) TestUpdateErrors() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "title", Content: "body"})
	s.Require().NoError(err)

	title := "hijacked"
	_, err = s.notes.Update(context.Background(), s.bob, note.ID, NoteUpdateInput{Title: &title})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.notes.Update(context.Background(), s.ana, note.ID+1000, NoteUpdateInput{Title: &title})
	s.ErrorIs(err, ErrNoteNotFound)

	_, err = s.notes.Update(context.Background(), s.ana, note.ID, NoteUpdateInput{})
	s.ErrorIs(err, ErrNothingToUpdate)

	empty := "  "
	_, err = s.notes.Update(context.Background(), s.ana, note.ID, NoteUpdateInput{Title: &empty, Content: &empty})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("title cannot be empty", verr.Fields["title"])
	s.Equal("content cannot be empty", verr.Fields["content"])

	long := strings.Repeat("x", 256)
	_, err = s.notes.Update(context.Background(), s.ana, note.ID, NoteUpdateInput{Title: &long})
	s.Require().ErrorAs(err, &verr)
	s.Equal("title must be between 1 and 255 characters", verr.Fields["title"])

	got, err := s.notes.Get(context.Background(), s.ana, note.ID)
	s.Require().NoError(err)
	s.Equal("title", got.Title, "failed updates must not change the note")
}

func (s *NoteServiceSuite) TestUpdateTitleAtLimit() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "title", Content: "body"})
	s.Require().NoError(err)

	title := strings.Repeat("é", 255)
	updated, err := s.notes.Update(context.Background(), s.ana, note.ID, NoteUpdateInput{Title: &title})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
}

func (s *NoteServiceSuite) TestDelete() {
	note, err := s.notes.Create(context.Background(), s.ana, NoteInput{Title: "title", Content: "body"})
	s.Require().NoError(err)

	s.ErrorIs(s.notes.Delete(context.Background(), s.bob, note.ID), ErrForbidden)
	s.Require().NoError(s.notes.Delete(context.Background(), s.ana, note.ID))
	s.ErrorIs(s.notes.Delete(context.Background(), s.ana, note.ID), ErrNoteNotFound)

	_, err = s.notes.Get(context.Background(), s.ana, note.ID)
	s.ErrorIs(err, ErrNoteNotFound)
}

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, RequireOwner(1, 1))
	assert.ErrorIs(t, RequireOwner(1, 2), ErrForbidden)
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("title", "title is required")
	verr.Add("content", "content is required")
	verr.Add("title", "ignored")

	require.True(t, verr.Has("title"))
	assert.Equal(t, "validation failed: content: content is required; title: title is required", verr.Error())
}
