package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

const emailTakenMessage = "email is already registered"

// bcrypt only reads the first 72 bytes of a password and rejects longer input.
const bcryptMaxBytes = 72

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, in LoginInput) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// UserOption customizes a UserService.
type UserOption func(*userService)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *userService) {
		s.cost = cost
	}
}

// WithUserClock replaces time.Now for created_at stamps.
func WithUserClock(now func() time.Time) UserOption {
	return func(s *userService) {
		if now != nil {
			s.now = now
		}
	}
}

type userService struct {
	users repository.UserRepository
	cost  int
	now   func() time.Time
}

func NewUserService(users repository.UserRepository, opts ...UserOption) UserService {
	s := &userService{
		users: users,
		cost:  bcrypt.DefaultCost,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	verr := validateStruct(in)
	if !verr.Has("email") {
		taken, err := s.users.EmailExists(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			verr.Add("email", emailTakenMessage)
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			verr := &ValidationError{}
			verr.Add("email", emailTakenMessage)
			return nil, verr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, in LoginInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in).orNil(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordBytes(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.users.EmailExists(ctx, normalizeEmail(email))
}

// passwordBytes cuts a password to the bcrypt input limit.
func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
