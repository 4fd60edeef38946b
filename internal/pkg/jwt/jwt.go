package jwt

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrTokenNotPresent = errors.New("token not present")
)

// Claims represents the access token claims. Subject carries the onboarding record id.
type Claims struct {
	UserID   uint   `json:"user_id"`
	RecordID uint   `json:"record_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the refresh token claims
type RefreshClaims struct {
	UserID  uint   `json:"user_id"`
	TokenID string `json:"token_id"` // Unique ID for this refresh token
	jwt.RegisteredClaims
}

// Principal is the authenticated identity handed to the write engine.
// SubjectID is the onboarding record id; staff accounts carry 0.
type Principal struct {
	SubjectID uint
	Claims    *Claims
}

// Config configures signing keys and lifetimes
type Config struct {
	Secret        string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Manager issues and validates HS256 tokens
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager creates a token manager
func NewManager(cfg Config) *Manager {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.Secret
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// GenerateAccessToken generates a new access token
func (m *Manager) GenerateAccessToken(userID, recordID uint, email, role string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.AccessExpiry)
	claims := Claims{
		UserID:   userID,
		RecordID: recordID,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			Subject:   strconv.FormatUint(uint64(recordID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	return signed, expiresAt, err
}

// GenerateRefreshToken generates a new refresh token
func (m *Manager) GenerateRefreshToken(userID uint, tokenID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.RefreshExpiry)
	claims := RefreshClaims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.RefreshSecret))
	return signed, expiresAt, err
}

// ValidateAccessToken validates an access token and returns claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(tokenString, claims, m.cfg.Secret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns claims
func (m *Manager) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims, m.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// Resolve turns an opaque bearer token into the principal owning an onboarding record
func (m *Manager) Resolve(tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenNotPresent
	}

	claims, err := m.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	subject, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uint(subject) != claims.RecordID {
		return nil, ErrTokenInvalid
	}

	return &Principal{SubjectID: uint(subject), Claims: claims}, nil
}
