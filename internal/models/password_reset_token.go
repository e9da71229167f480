package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password reset token stays usable.
const ResetTokenTTL = 1 * time.Hour

// ResetToken is a single-use credential allowing a password reset.
type ResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (t *ResetToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(ResetTokenTTL)
	}
	return
}

// Expired reports whether the token is past its expiry at now.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
