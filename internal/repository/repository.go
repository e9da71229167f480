// Package repository is the persistence boundary for users and reset tokens.
package repository

import (
	"context"
	"errors"
	"time"

	"linkcard/backend/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint (username, email, token) is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// MediaRef carries the fields of a user that can point at stored media.
type MediaRef struct {
	Avatar          string
	BackgroundImage string
}

// UserRepository stores LinkCard users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListMediaRefs(ctx context.Context) ([]MediaRef, error)
}

// ResetTokenRepository stores password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.ResetToken) error
	// FindValid returns the token only if it exists and has not expired at now.
	FindValid(ctx context.Context, token string, now time.Time) (*models.ResetToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
