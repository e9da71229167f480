package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkcard/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository on top of gorm.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return translate(err, "save user")
	}
	return nil
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return translate(res.Error, "update password")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) ListMediaRefs(ctx context.Context) ([]MediaRef, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Select("avatar", "styles").Find(&users).Error; err != nil {
		return nil, translate(err, "list media references")
	}
	refs := make([]MediaRef, 0, len(users))
	for i := range users {
		refs = append(refs, MediaRef{
			Avatar:          users[i].Avatar,
			BackgroundImage: users[i].BackgroundImage(),
		})
	}
	return refs, nil
}

// GormResetTokenRepository implements ResetTokenRepository on top of gorm.
type GormResetTokenRepository struct {
	db *gorm.DB
}

func NewGormResetTokenRepository(db *gorm.DB) *GormResetTokenRepository {
	return &GormResetTokenRepository{db: db}
}

func (r *GormResetTokenRepository) Create(ctx context.Context, token *models.ResetToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return translate(err, "create reset token")
	}
	return nil
}

func (r *GormResetTokenRepository) FindValid(ctx context.Context, token string, now time.Time) (*models.ResetToken, error) {
	var rt models.ResetToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&rt).Error
	if err != nil {
		return nil, translate(err, "find reset token")
	}
	return &rt, nil
}

func (r *GormResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ResetToken{}).Error; err != nil {
		return translate(err, "delete reset token")
	}
	return nil
}

func (r *GormResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.ResetToken{})
	if res.Error != nil {
		return 0, translate(res.Error, "delete expired reset tokens")
	}
	return res.RowsAffected, nil
}

// translate maps gorm and driver errors onto the package sentinels.
func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isUniqueViolation catches SQLSTATE 23505 when the connection was opened without TranslateError.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
