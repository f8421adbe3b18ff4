package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"notes-api/internal/domain"
	"notes-api/internal/metrics"
	"notes-api/internal/repository"
)

const (
	// DefaultSessionTTL is the sliding session lifetime used when none is configured.
	DefaultSessionTTL = time.Hour

	tokenBytes = 32
)

// SessionService issues, validates, renews and revokes bearer tokens.
type SessionService interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Validate(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeAll(ctx context.Context, userID int64) (bool, error)
	Sweep(ctx context.Context) (int64, error)
	TTL() time.Duration
}

// SessionOption customizes a SessionService.
type SessionOption func(*sessionService)

// WithSessionClock replaces time.Now as the session clock.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *sessionService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionMetrics records session lifecycle counters on m.
func WithSessionMetrics(m *metrics.Metrics) SessionOption {
	return func(s *sessionService) {
		s.metrics = m
	}
}

type sessionService struct {
	sessions repository.SessionRepository
	ttl      time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, ttl time.Duration, logger logrus.FieldLogger, opts ...SessionOption) SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	s := &sessionService{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	// prior sessions of the user are removed in the same transaction
	if err := s.sessions.ReplaceForUser(ctx, session); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	s.metrics.SessionIssued()
	return token, nil
}

func (s *sessionService) Validate(ctx context.Context, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalidToken
	}

	now := s.now()
	if _, err := s.sweep(ctx, now); err != nil {
		s.logger.WithError(err).Warn("expired session sweep failed")
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup session: %w", err)
	}

	if session.Expired(now) {
		if deleted, err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.WithError(err).Warn("purge expired session failed")
		} else if deleted {
			s.metrics.SessionsExpiredAdd(1)
		}
		return 0, ErrInvalidToken
	}

	renewed, err := s.sessions.Touch(ctx, token, now, now.Add(s.ttl))
	if err != nil {
		return 0, fmt.Errorf("renew session: %w", err)
	}
	if !renewed {
		// revoked or expired between lookup and renewal
		return 0, ErrInvalidToken
	}
	return session.UserID, nil
}

func (s *sessionService) Revoke(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	deleted, err := s.sessions.Delete(ctx, token)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	if deleted {
		s.metrics.SessionsRevokedAdd(1)
	}
	return deleted, nil
}

func (s *sessionService) RevokeAll(ctx context.Context, userID int64) (bool, error) {
	n, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("revoke user sessions: %w", err)
	}
	s.metrics.SessionsRevokedAdd(n)
	return n > 0, nil
}

func (s *sessionService) Sweep(ctx context.Context) (int64, error) {
	return s.sweep(ctx, s.now())
}

func (s *sessionService) sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.SessionsExpiredAdd(n)
		s.logger.WithField("count", n).Debug("purged expired sessions")
	}
	return n, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
