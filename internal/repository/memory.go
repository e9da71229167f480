package repository

import (
	"context"
	"sync"
	"time"

	"linkcard/backend/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-process UserRepository used by tests and local tooling.
// It enforces the same username/email uniqueness as the database indexes.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	if r.conflicts(user) {
		return ErrDuplicate
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) findBy(match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(user) {
		return ErrDuplicate
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) ListMediaRefs(_ context.Context) ([]MediaRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]MediaRef, 0, len(r.users))
	for _, u := range r.users {
		refs = append(refs, MediaRef{Avatar: u.Avatar, BackgroundImage: u.BackgroundImage()})
	}
	return refs, nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// conflicts must be called with mu held.
func (r *MemoryUserRepository) conflicts(user *models.User) bool {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || u.Email == user.Email {
			return true
		}
	}
	return false
}

func cloneUser(u models.User) models.User {
	if u.Links != nil {
		links := make([]models.Link, len(u.Links))
		copy(links, u.Links)
		u.Links = links
	}
	if g := u.Styles.Background.Value.Gradient; g != nil {
		gc := *g
		u.Styles.Background.Value.Gradient = &gc
	}
	return u
}

// MemoryResetTokenRepository is an in-process ResetTokenRepository.
type MemoryResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]models.ResetToken
}

func NewMemoryResetTokenRepository() *MemoryResetTokenRepository {
	return &MemoryResetTokenRepository{tokens: make(map[uuid.UUID]models.ResetToken)}
}

func (r *MemoryResetTokenRepository) Create(_ context.Context, token *models.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := token.BeforeCreate(nil); err != nil {
		return err
	}
	for _, t := range r.tokens {
		if t.Token == token.Token {
			return ErrDuplicate
		}
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	r.tokens[token.ID] = *token
	return nil
}

func (r *MemoryResetTokenRepository) FindValid(_ context.Context, token string, now time.Time) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token && !t.Expired(now) {
			out := t
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryResetTokenRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)
	return nil
}

func (r *MemoryResetTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored tokens, expired or not.
func (r *MemoryResetTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
