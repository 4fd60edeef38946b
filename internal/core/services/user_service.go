package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/pagination"
	"cif-onboarding/internal/pkg/password"
	"cif-onboarding/internal/pkg/txguard"

	"gorm.io/gorm"
)

// User management errors
var (
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrCannotDisableSelf   = errors.New("cannot disable your own account")
	ErrApplicantRoleFixed  = errors.New("applicant accounts cannot change role")
	ErrInvalidStaffRole    = errors.New("role must be OFFICER or ADMIN")
)

// UserService manages staff accounts and self-service password changes
type UserService struct {
	pool             *txguard.Pool
	userRepo         repositories.AuthUserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	now              func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	pool *txguard.Pool,
	userRepo repositories.AuthUserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		pool:             pool,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		now:              time.Now,
	}
}

// CreateStaffInput represents a new officer or admin account
type CreateStaffInput struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,strong_password"`
	Role     string `json:"role" validate:"required,oneof=OFFICER ADMIN"`
}

// SetRoleInput represents a role change
type SetRoleInput struct {
	Role string `json:"role" validate:"required,oneof=OFFICER ADMIN"`
}

// SetLoginDisabledInput toggles the login switch of an account
type SetLoginDisabledInput struct {
	Disabled bool `json:"disabled"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

// ListUsers lists accounts, newest first. An empty role lists everyone.
func (s *UserService) ListUsers(ctx context.Context, role string, params *pagination.Params) ([]*models.AuthUserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, strings.ToUpper(role), params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.AuthUserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, total, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.AuthUserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// CreateStaff creates an active officer or admin account. Staff accounts own
// no onboarding record.
func (s *UserService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*models.AuthUserResponse, error) {
	role, err := staffRole(input.Role)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.AuthUser{
		Email:       email,
		Password:    hashedPassword,
		Role:        string(role),
		IsActive:    true,
		ActivatedAt: &now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	logger.Info(ctx, "staff account created", "user_id", user.ID, "role", user.Role)
	return user.ToResponse(), nil
}

// SetUserRole moves a staff account between OFFICER and ADMIN. Existing
// sessions are revoked so the next login carries the new role.
func (s *UserService) SetUserRole(ctx context.Context, id, actorID uint, input *SetRoleInput) (*models.AuthUserResponse, error) {
	if id == actorID {
		return nil, ErrCannotChangeOwnRole
	}
	role, err := staffRole(input.Role)
	if err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.RecordID() != 0 {
		return nil, ErrApplicantRoleFixed
	}
	if user.Role == string(role) {
		return user.ToResponse(), nil
	}

	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateFields(ctx, id, map[string]any{"role": string(role)}); err != nil {
			return err
		}
		return s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user role changed", "user_id", id, "role", role, "actor_id", actorID)
	user.Role = string(role)
	return user.ToResponse(), nil
}

// SetLoginDisabled blocks or unblocks login. Disabling revokes every session.
func (s *UserService) SetLoginDisabled(ctx context.Context, id, actorID uint, disabled bool) (*models.AuthUserResponse, error) {
	if id == actorID && disabled {
		return nil, ErrCannotDisableSelf
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateFields(ctx, id, map[string]any{"disabled_login": disabled}); err != nil {
			return err
		}
		if !disabled {
			return nil
		}
		return s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "login switch changed", "user_id", id, "disabled", disabled, "actor_id", actorID)
	user.DisabledLogin = disabled
	return user.ToResponse(), nil
}

// ChangePassword changes the caller's password and signs out every session
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateFields(ctx, userID, map[string]any{"password": hashedPassword}); err != nil {
			return err
		}
		return s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, userID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *UserService) load(ctx context.Context, id uint) (*models.AuthUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func staffRole(role string) (domain.Role, error) {
	switch r := domain.Role(strings.ToUpper(strings.TrimSpace(role))); r {
	case domain.RoleOfficer, domain.RoleAdmin:
		return r, nil
	default:
		return "", ErrInvalidStaffRole
	}
}
