package handlers

import (
	"errors"
	"strings"
	"time"

	"cif-onboarding/internal/adapters/http/middleware"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RefreshRequest carries a refresh token for clients that do not keep cookies
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles applicant registration
// @Summary Register new applicant
// @Description Create the onboarding record, its request row and the login account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.IPAddress = c.IP()

	result, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailAlreadyRegistered):
			return response.Conflict(c, "Email already registered")
		default:
			return response.InternalServerError(c, "Failed to register user")
		}
	}

	return response.Created(c, "Registration successful", result)
}

// Activate handles account activation
// @Summary Activate account
// @Description Activate an account with the key issued at registration
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.ActivateInput true "Activation data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/activate [post]
func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	var req services.ActivateInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := h.authService.Activate(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidActivationKey):
			return response.BadRequest(c, "Invalid activation key")
		default:
			return response.InternalServerError(c, "Failed to activate account")
		}
	}

	return response.Success(c, "Account activated", nil)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	result, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, services.ErrLoginDisabled):
			return response.Forbidden(c, "Login is disabled for this account")
		case errors.Is(err, services.ErrAccountNotActivated):
			return response.Forbidden(c, "Account is not activated")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
		"user":         result.User,
	})
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token and issue a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUserNotFound):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrLoginDisabled):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "Login is disabled for this account")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
		"user":         result.User,
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and revoke refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		_ = h.authService.Logout(c.UserContext(), refreshToken)
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke all refresh tokens for the user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.UserContext(), userID); err != nil {
		return response.InternalServerError(c, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out from all devices", nil)
}

// ForgotPassword issues a password reset key
// @Summary Request password reset
// @Description Issue a reset key; the response is the same whether or not the email exists
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.ForgotPasswordInput true "Account email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req services.ForgotPasswordInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	key, err := h.authService.RequestPasswordReset(c.UserContext(), &req)
	if err != nil {
		return response.InternalServerError(c, "Failed to request password reset")
	}

	var data fiber.Map
	if h.cfg.IsDev() && key != "" {
		data = fiber.Map{"reset_key": key}
	}
	return response.Success(c, "If the email is registered, a reset key has been issued", data)
}

// ResetPassword sets a new password using a reset key
// @Summary Reset password
// @Description Set a new password and revoke every session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.ResetPasswordInput true "Reset data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req services.ResetPasswordInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetKey):
			return response.BadRequest(c, "Invalid or expired reset key")
		default:
			return response.InternalServerError(c, "Failed to reset password")
		}
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Password has been reset", nil)
}

// Session returns the current user info
// @Summary Get current session
// @Description Get the account behind the access token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.Session(c.UserContext(), principal)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrInvalidToken):
			return response.Unauthorized(c, "Invalid session")
		default:
			return response.InternalServerError(c, "Failed to load session")
		}
	}

	return response.Success(c, "Session retrieved successfully", fiber.Map{
		"user": user,
	})
}

func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}
