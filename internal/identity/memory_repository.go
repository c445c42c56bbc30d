package identity

import (
	"context"
	"sync"
	"time"

	"github.com/quillpost/quillpost/internal/autherr"
)

type memoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]User
	byName  map[string]int64
	byEmail map[string]int64
}

// NewMemoryRepository builds an in-memory user store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:   make(map[int64]User),
		byName:  make(map[string]int64),
		byEmail: make(map[string]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[user.Username]; exists {
		return User{}, autherr.ErrDuplicateUsername
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return User{}, autherr.ErrDuplicateEmail
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	r.byName[user.Username] = user.ID
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *User) {
		t := at.UTC()
		u.LastLogin = &t
	})
}

func (r *memoryRepository) SetActive(_ context.Context, id int64, active bool) error {
	return r.update(id, func(u *User) { u.IsActive = active })
}

func (r *memoryRepository) update(id int64, mutate func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&user)
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}
