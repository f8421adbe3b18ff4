package service

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notes-api/internal/domain"
	"notes-api/internal/repository/sqlite"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.OpenAndMigrate(context.Background(), ":memory:", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	id, err := sqlite.NewUserRepository(db).Create(context.Background(), &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return id
}

func newTestUserService(db *sql.DB) UserService {
	return NewUserService(sqlite.NewUserRepository(db), WithBcryptCost(bcrypt.MinCost))
}
