package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/quillpost/quillpost/internal/autherr"
)

// ErrInvalidRegistration wraps field validation failures on Register.
var ErrInvalidRegistration = errors.New("invalid registration")

// PasswordHasher produces salted one-way digests of plaintext passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// Service manages the account lifecycle on top of a Repository.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	now    func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher, now: time.Now}
}

// Repository exposes the underlying credential store.
func (s *Service) Repository() Repository {
	return s.repo
}

// Register validates the registration, stores a hashed password and returns the new active user.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	if err := validation.ValidateStruct(&reg,
		validation.Field(&reg.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&reg.Email, validation.Required, validation.Length(3, 255), is.Email),
		// bcrypt ignores everything past 72 bytes.
		validation.Field(&reg.Password, validation.Required, validation.Length(6, 72)),
	); err != nil {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidRegistration, err.Error())
	}

	if _, err := s.repo.FindByUsername(ctx, reg.Username); err == nil {
		return User{}, autherr.ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.repo.FindByEmail(ctx, reg.Email); err == nil {
		return User{}, autherr.ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, reg.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	// The store's unique constraints still decide races between concurrent registrations.
	return s.repo.Create(ctx, User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		IsActive:     true,
	})
}

// TouchLastLogin records the current time as the user's last login.
func (s *Service) TouchLastLogin(ctx context.Context, username string) (User, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return User{}, err
	}
	at := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return User{}, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &at
	return user, nil
}

// SetActive activates or deactivates the named account.
func (s *Service) SetActive(ctx context.Context, username string, active bool) (User, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.SetActive(ctx, user.ID, active); err != nil {
		return User{}, fmt.Errorf("set active: %w", err)
	}
	user.IsActive = active
	return user, nil
}

func (s *Service) lookup(ctx context.Context, username string) (User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, autherr.ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
