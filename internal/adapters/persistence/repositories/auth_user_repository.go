package repositories

import (
	"context"
	"strings"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// authUserRepository implements AuthUserRepository interface
type authUserRepository struct {
	db *gorm.DB
}

// NewAuthUserRepository creates a new auth user repository
func NewAuthUserRepository(db *gorm.DB) AuthUserRepository {
	return &authUserRepository{db: db}
}

// WithTx returns a repository issuing every statement through tx
func (r *authUserRepository) WithTx(tx *gorm.DB) AuthUserRepository {
	return &authUserRepository{db: tx}
}

// Create creates a new auth user
func (r *authUserRepository) Create(ctx context.Context, user *models.AuthUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets an auth user by ID
func (r *authUserRepository) GetByID(ctx context.Context, id uint) (*models.AuthUser, error) {
	var user models.AuthUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets an auth user by email, case-insensitively
func (r *authUserRepository) GetByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	var user models.AuthUser
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByRecordID gets the auth user owning an onboarding record
func (r *authUserRepository) GetByRecordID(ctx context.Context, recordID uint) (*models.AuthUser, error) {
	var user models.AuthUser
	err := r.db.WithContext(ctx).Where("web_cif_nid = ?", recordID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail checks if an email is already registered
func (r *authUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AuthUser{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields updates selected columns of an auth user
func (r *authUserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.AuthUser{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists accounts, optionally of one role, newest first
func (r *authUserRepository) List(ctx context.Context, role string, offset, limit int) ([]*models.AuthUser, int64, error) {
	var users []*models.AuthUser
	var total int64

	byRole := func(db *gorm.DB) *gorm.DB {
		if role != "" {
			return db.Where("role = ?", role)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.AuthUser{}).Scopes(byRole).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(byRole).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error

	return users, total, err
}

// ClearExpiredResetKeys removes password reset keys past their expiry (cleanup job)
func (r *authUserRepository) ClearExpiredResetKeys(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AuthUser{}).
		Where("reset_password_expires_at IS NOT NULL").
		Where("reset_password_expires_at < ?", now).
		Updates(map[string]any{
			"reset_password_key":        "",
			"reset_password_expires_at": nil,
		})
	return result.RowsAffected, result.Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
