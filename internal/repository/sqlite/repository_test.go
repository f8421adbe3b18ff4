package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type RepositorySuite struct {
	suite.Suite
	db       *sql.DB
	users    repository.UserRepository
	sessions repository.SessionRepository
	notes    repository.NoteRepository
	base     time.Time
}

func (s *RepositorySuite) SetupTest() {
	db, err := OpenAndMigrate(context.Background(), memoryPath, quietLogger())
	require.NoError(s.T(), err, "failed to create test database")
	s.db = db
	s.users = NewUserRepository(db)
	s.sessions = NewSessionRepository(db)
	s.notes = NewNoteRepository(db)
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *RepositorySuite) createUser(email string) int64 {
	id, err := s.users.Create(context.Background(), &domain.User{
		Name:         "Ana",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    s.base,
	})
	require.NoError(s.T(), err)
	return id
}

func (s *RepositorySuite) TestUserCreateAndLookup() {
	ctx := context.Background()
	id := s.createUser("ana@x.com")

	byEmail, err := s.users.GetByEmail(ctx, "ana@x.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, byEmail.ID)
	assert.Equal(s.T(), "hash", byEmail.PasswordHash)
	assert.True(s.T(), s.base.Equal(byEmail.CreatedAt))

	byID, err := s.users.GetByID(ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ana@x.com", byID.Email)

	_, err = s.users.GetByID(ctx, id+100)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestUserEmailUniqueIgnoresCase() {
	ctx := context.Background()
	s.createUser("foo@x.com")

	exists, err := s.users.EmailExists(ctx, "FOO@X.COM")
	require.NoError(s.T(), err)
	assert.True(s.T(), exists)

	_, err = s.users.Create(ctx, &domain.User{Name: "Foo", Email: "Foo@X.com", PasswordHash: "h"})
	assert.ErrorIs(s.T(), err, repository.ErrEmailTaken)
}

func (s *RepositorySuite) TestReplaceForUserKeepsSingleSession() {
	ctx := context.Background()
	uid := s.createUser("ana@x.com")

	first := &domain.Session{Token: "t1", UserID: uid, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base}
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, first))
	second := &domain.Session{Token: "t2", UserID: uid, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base}
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, second))

	_, err := s.sessions.GetByToken(ctx, "t1")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	got, err := s.sessions.GetByToken(ctx, "t2")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), uid, got.UserID)
	assert.True(s.T(), s.base.Add(time.Hour).Equal(got.ExpiresAt))
}

func (s *RepositorySuite) TestReplaceForUserRollsBackOnInsertFailure() {
	ctx := context.Background()
	a := s.createUser("a@x.com")
	b := s.createUser("b@x.com")

	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "shared", UserID: a, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base}))
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "b1", UserID: b, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base}))

	// duplicate primary key makes the insert fail after the delete ran
	err := s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "shared", UserID: b, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base})
	require.Error(s.T(), err)

	_, err = s.sessions.GetByToken(ctx, "b1")
	assert.NoError(s.T(), err, "previous session must survive a failed replace")
}

func (s *RepositorySuite) TestTouchOnlyRenewsLiveSessions() {
	ctx := context.Background()
	uid := s.createUser("ana@x.com")
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "t", UserID: uid, ExpiresAt: s.base.Add(time.Minute), CreatedAt: s.base}))

	ok, err := s.sessions.Touch(ctx, "t", s.base.Add(30*time.Second), s.base.Add(2*time.Hour))
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.sessions.Touch(ctx, "t", s.base.Add(3*time.Hour), s.base.Add(4*time.Hour))
	require.NoError(s.T(), err)
	assert.False(s.T(), ok, "expired session must not be renewed")

	ok, err = s.sessions.Touch(ctx, "missing", s.base, s.base.Add(time.Hour))
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *RepositorySuite) TestDeleteExpired() {
	ctx := context.Background()
	a := s.createUser("a@x.com")
	b := s.createUser("b@x.com")
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "old", UserID: a, ExpiresAt: s.base.Add(-time.Second), CreatedAt: s.base.Add(-time.Hour)}))
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "edge", UserID: b, ExpiresAt: s.base, CreatedAt: s.base.Add(-time.Hour)}))

	n, err := s.sessions.DeleteExpired(ctx, s.base)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)

	n, err = s.sessions.DeleteExpired(ctx, s.base)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func (s *RepositorySuite) TestDeleteSessionIsIdempotent() {
	ctx := context.Background()
	uid := s.createUser("ana@x.com")
	require.NoError(s.T(), s.sessions.ReplaceForUser(ctx, &domain.Session{Token: "t", UserID: uid, ExpiresAt: s.base.Add(time.Hour), CreatedAt: s.base}))

	ok, err := s.sessions.Delete(ctx, "t")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.sessions.Delete(ctx, "t")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	n, err := s.sessions.DeleteByUser(ctx, uid)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func (s *RepositorySuite) TestNotesOrderedByUpdatedAt() {
	ctx := context.Background()
	uid := s.createUser("ana@x.com")

	ids := make([]int64, 3)
	for i := range ids {
		note := &domain.Note{UserID: uid, Title: "t", Content: "c", CreatedAt: s.base.Add(time.Duration(i) * time.Minute)}
		id, err := s.notes.Create(ctx, note)
		require.NoError(s.T(), err)
		ids[i] = id
	}

	list, err := s.notes.ListByUser(ctx, uid)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)
	assert.Equal(s.T(), []int64{ids[2], ids[1], ids[0]}, []int64{list[0].ID, list[1].ID, list[2].ID})

	title := "renamed"
	ok, err := s.notes.Update(ctx, ids[0], uid, domain.NotePatch{Title: &title}, s.base.Add(time.Hour))
	require.NoError(s.T(), err)
	require.True(s.T(), ok)

	list, err = s.notes.ListByUser(ctx, uid)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ids[0], list[0].ID)
	assert.Equal(s.T(), "renamed", list[0].Title)
	assert.Equal(s.T(), "c", list[0].Content)
	assert.True(s.T(), s.base.Add(time.Hour).Equal(list[0].UpdatedAt))
}

func (s *RepositorySuite) TestNoteMutationsScopedByOwner() {
	ctx := context.Background()
	owner := s.createUser("a@x.com")
	other := s.createUser("b@x.com")

	id, err := s.notes.Create(ctx, &domain.Note{UserID: owner, Title: "t", Content: "c", CreatedAt: s.base})
	require.NoError(s.T(), err)

	content := "stolen"
	ok, err := s.notes.Update(ctx, id, other, domain.NotePatch{Content: &content}, s.base.Add(time.Minute))
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	ok, err = s.notes.Delete(ctx, id, other)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	got, err := s.notes.Get(ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "c", got.Content)
	assert.Equal(s.T(), owner, got.UserID)

	ok, err = s.notes.Delete(ctx, id, owner)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	_, err = s.notes.Get(ctx, id)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestEmptyListIsNotNil() {
	list, err := s.notes.ListByUser(context.Background(), 42)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), list)
	assert.Empty(s.T(), list)
}

func (s *RepositorySuite) TestOnlyUniqueConstraintsMapToEmailTaken() {
	ctx := context.Background()
	s.createUser("foo@x.com")

	_, err := s.db.ExecContext(ctx, `INSERT INTO users (name, email, password_hash, created_at) VALUES ('a', 'FOO@x.com', 'h', ?)`, s.base)
	require.Error(s.T(), err)
	assert.True(s.T(), isUniqueViolation(err))

	_, err = s.db.ExecContext(ctx, `INSERT INTO notes (user_id, title, content, created_at, updated_at) VALUES (999, 't', 'c', ?, ?)`, s.base, s.base)
	require.Error(s.T(), err, "foreign keys are enforced")
	assert.False(s.T(), isUniqueViolation(err))

	assert.False(s.T(), isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
}

func (s *RepositorySuite) TestMigrateIsRepeatable() {
	require.NoError(s.T(), Migrate(context.Background(), s.db, quietLogger()))
	require.NoError(s.T(), Migrate(context.Background(), s.db, nil))
	s.createUser("again@x.com")
}

func TestMigrateConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := OpenAndMigrate(context.Background(), memoryPath, quietLogger())
			if err == nil {
				db.Close()
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
