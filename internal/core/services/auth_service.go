package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/jwt"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/password"
	"cif-onboarding/internal/pkg/txguard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrAccountNotActivated    = errors.New("account has not been activated")
	ErrLoginDisabled          = errors.New("login is disabled for this account")
	ErrInvalidActivationKey   = errors.New("invalid activation key")
	ErrInvalidResetKey        = errors.New("invalid or expired reset key")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	ErrTokenRevoked           = errors.New("token revoked")
)

// AuthService handles registration, login and the account lifecycle
type AuthService struct {
	pool             *txguard.Pool
	onboardingRepo   repositories.OnboardingRepository
	userRepo         repositories.AuthUserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	tokens           *jwt.Manager
	notifier         Notifier
	cfg              *config.Config
	now              func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	pool *txguard.Pool,
	onboardingRepo repositories.OnboardingRepository,
	userRepo repositories.AuthUserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	tokens *jwt.Manager,
	notifier Notifier,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		pool:             pool,
		onboardingRepo:   onboardingRepo,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		tokens:           tokens,
		notifier:         notifierOrNoop(notifier),
		cfg:              cfg,
		now:              time.Now,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email          string `json:"email" validate:"required,email,max=100"`
	Password       string `json:"password" validate:"required,strong_password"`
	FullName       string `json:"full_name" validate:"required,person_name,max=100"`
	MobilePhone    string `json:"mobile_phone" validate:"required,phone"`
	ClientCategory int    `json:"client_category" validate:"gte=0"`
	Sales          int    `json:"sales" validate:"gte=0"`
	Referral       string `json:"referral" validate:"max=50"`
	IPAddress      string `json:"-"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ActivateInput represents account activation input
type ActivateInput struct {
	Email string `json:"email" validate:"required,email"`
	Key   string `json:"key" validate:"required"`
}

// ForgotPasswordInput represents a password reset request
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput represents a password reset
type ResetPasswordInput struct {
	Email    string `json:"email" validate:"required,email"`
	Key      string `json:"key" validate:"required"`
	Password string `json:"password" validate:"required,strong_password"`
}

// RegisterResult is returned after registration. ActivationKey is only filled
// in dev mode; in prod the key travels out of band.
type RegisterResult struct {
	User          *models.AuthUserResponse `json:"user"`
	RecordID      uint                     `json:"record_id"`
	ActivationKey string                   `json:"activation_key,omitempty"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.AuthUserResponse `json:"user"`
	AccessToken  string                   `json:"access_token"`
	RefreshToken string                   `json:"refresh_token"`
	ExpiresAt    time.Time                `json:"expires_at"`
}

// Register creates the onboarding record, its auxiliary row and the login in
// one guarded transaction
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
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

	record := &models.OnboardingRecord{
		Stage:          int(domain.StagePersonalData),
		Email:          email,
		MobilePhone:    normalizePhone(input.MobilePhone),
		FullName:       strings.TrimSpace(input.FullName),
		ClientCategory: input.ClientCategory,
		Sales:          input.Sales,
		Referral:       input.Referral,
		AppIPAddress:   input.IPAddress,
	}
	user := &models.AuthUser{
		Email:    email,
		Password: hashedPassword,
		Role:     string(domain.RoleApplicant),
		IsActive: !s.cfg.Auth.RequireActivation,
	}

	var activationKey string
	if s.cfg.Auth.RequireActivation {
		activationKey = uuid.NewString()
		user.ActivationKey = password.HashToken(activationKey)
	} else {
		now := s.now()
		user.ActivatedAt = &now
	}

	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		if err := s.onboardingRepo.WithTx(tx).Create(ctx, record, &models.OnboardingRequest{}); err != nil {
			return err
		}
		user.WebCIFNID = &record.AutoNID
		return s.userRepo.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	logger.Info(ctx, "applicant registered", "record_id", record.AutoNID, "user_id", user.ID)
	s.notifier.NotifyNewRegistration(record)

	result := &RegisterResult{
		User:     s.userResponse(user, record),
		RecordID: record.AutoNID,
	}
	if s.cfg.IsDev() {
		result.ActivationKey = activationKey
	}
	return result, nil
}

// Activate activates an account with the key issued at registration
func (s *AuthService) Activate(ctx context.Context, input *ActivateInput) error {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidActivationKey
		}
		return err
	}
	if user.IsActive {
		return nil
	}
	if !keyMatches(input.Key, user.ActivationKey) {
		return ErrInvalidActivationKey
	}

	now := s.now()
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"is_active":      true,
		"activation_key": "",
		"activated_at":   now,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "account activated", "user_id", user.ID)
	return nil
}

// Login authenticates a user and records the login
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if user.DisabledLogin {
		return nil, ErrLoginDisabled
	}
	if !user.IsActive {
		return nil, ErrAccountNotActivated
	}

	now := s.now()
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"last_login_at": now,
		"login_count":   gorm.Expr("login_count + 1"),
	})
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	user.LoginCount++

	resp, err := s.issueTokens(ctx, s.refreshTokenRepo, user, s.ownedRecord(ctx, user))
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return resp, nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every session of its owner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)
	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if stored.IsRevoked() {
		logger.Warn(ctx, "revoked refresh token presented, revoking all sessions", "user_id", stored.UserID)
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, stored.UserID); err != nil {
			return nil, err
		}
		return nil, ErrTokenRevoked
	}
	if stored.ExpiresAt.Before(s.now()) {
		return nil, ErrTokenExpired
	}
	if stored.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive || user.DisabledLogin {
		return nil, ErrLoginDisabled
	}

	record := s.ownedRecord(ctx, user)

	var resp *AuthResponse
	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		repo := s.refreshTokenRepo.WithTx(tx)
		revoked, err := repo.RevokeByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if !revoked {
			// rotated by a concurrent refresh since the check above
			logger.Warn(ctx, "refresh token rotated concurrently", "user_id", stored.UserID)
			return ErrTokenRevoked
		}
		issued, err := s.issueTokens(ctx, repo, user, record)
		resp = issued
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
	return err
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	logger.Info(ctx, "all sessions revoked", "user_id", userID)
	return nil
}

// RequestPasswordReset issues a reset key. Unknown emails get an empty key and
// no error so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, input *ForgotPasswordInput) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	key := uuid.NewString()
	expiresAt := s.now().Add(s.cfg.Auth.ResetKeyTTL)
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"reset_password_key":        password.HashToken(key),
		"reset_password_expires_at": expiresAt,
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return key, nil
}

// ResetPassword sets a new password and revokes every refresh token
func (s *AuthService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetKey
		}
		return err
	}
	if user.ResetPasswordExpiresAt == nil || user.ResetPasswordExpiresAt.Before(s.now()) {
		return ErrInvalidResetKey
	}
	if !keyMatches(input.Key, user.ResetPasswordKey) {
		return ErrInvalidResetKey
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return err
	}

	err = txguard.Run(ctx, s.pool, func(tx *gorm.DB) error {
		err := s.userRepo.WithTx(tx).UpdateFields(ctx, user.ID, map[string]any{
			"password":                  hashedPassword,
			"reset_password_key":        "",
			"reset_password_expires_at": nil,
		})
		if err != nil {
			return err
		}
		return s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// Session returns the account behind an authenticated principal
func (s *AuthService) Session(ctx context.Context, principal *jwt.Principal) (*models.AuthUserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, principal.Claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.RecordID() != principal.SubjectID {
		return nil, ErrInvalidToken
	}

	var record *models.OnboardingRecord
	if id := user.RecordID(); id != 0 {
		record, err = s.onboardingRepo.GetByID(ctx, id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return s.userResponse(user, record), nil
}

// issueTokens signs a token pair and stores the refresh token through repo
func (s *AuthService) issueTokens(ctx context.Context, repo repositories.RefreshTokenRepository, user *models.AuthUser, record *models.OnboardingRecord) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.RecordID(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := s.tokens.GenerateRefreshToken(user.ID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	err = repo.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         s.userResponse(user, record),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// ownedRecord loads the applicant's record for display; staff have none
func (s *AuthService) ownedRecord(ctx context.Context, user *models.AuthUser) *models.OnboardingRecord {
	id := user.RecordID()
	if id == 0 {
		return nil
	}
	record, err := s.onboardingRepo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return record
}

func (s *AuthService) userResponse(user *models.AuthUser, record *models.OnboardingRecord) *models.AuthUserResponse {
	resp := user.ToResponse()
	if record != nil {
		resp.FullName = record.FullName
		resp.MobilePhone = record.MobilePhone
	}
	return resp
}

// keyMatches compares a presented key against its stored hash
func keyMatches(key, storedHash string) bool {
	if key == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password.HashToken(key)), []byte(storedHash)) == 1
}
