package repositories

import (
	"context"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// OnboardingRepository defines onboarding record data access.
// WithTx binds the repository to a guarded transaction handle.
type OnboardingRepository interface {
	WithTx(tx *gorm.DB) OnboardingRepository
	Create(ctx context.Context, record *models.OnboardingRecord, request *models.OnboardingRequest) error
	GetByID(ctx context.Context, id uint) (*models.OnboardingRecord, error)
	GetRequest(ctx context.Context, id uint) (*models.OnboardingRequest, error)
	LockForUpdate(ctx context.Context, id uint) (*models.OnboardingRecord, *models.OnboardingRequest, error)
	UpdateRecord(ctx context.Context, id uint, fields map[string]any) error
	UpdateRequest(ctx context.Context, id uint, fields map[string]any) error
	List(ctx context.Context, filter OnboardingFilter, offset, limit int) ([]*models.OnboardingRecord, int64, error)
	Stats(ctx context.Context, since time.Time) (*OnboardingStats, error)
}

// AuthUserRepository defines credential data access
type AuthUserRepository interface {
	WithTx(tx *gorm.DB) AuthUserRepository
	Create(ctx context.Context, user *models.AuthUser) error
	GetByID(ctx context.Context, id uint) (*models.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	GetByRecordID(ctx context.Context, recordID uint) (*models.AuthUser, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	List(ctx context.Context, role string, offset, limit int) ([]*models.AuthUser, int64, error)
	ClearExpiredResetKeys(ctx context.Context, now time.Time) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	WithTx(tx *gorm.DB) RefreshTokenRepository
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// OptionRepository defines read access to reference options
type OptionRepository interface {
	ListByCategory(ctx context.Context, category string) ([]*models.Option, error)
	Search(ctx context.Context, category, query string, limit int) ([]*models.Option, error)
	Upsert(ctx context.Context, options []*models.Option) error
}
