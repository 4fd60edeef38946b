package handlers

import (
	"errors"

	"cif-onboarding/internal/adapters/http/middleware"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/pagination"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles listing accounts (Admin only)
// @Summary List accounts
// @Description Paginated accounts, newest first (Admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param role query string false "APPLICANT, OFFICER or ADMIN"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.ListUsers(c.UserContext(), c.Query("role"), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(users, params, total))
}

// GetUser handles getting a user by ID (Admin only)
// @Summary Get account
// @Description Get a specific account by ID (Admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return h.userError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

// CreateStaff handles creating an officer or admin account (Admin only)
// @Summary Create staff account
// @Description Create an active OFFICER or ADMIN account (Admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateStaffInput true "Account data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/users [post]
func (h *UserHandler) CreateStaff(c *fiber.Ctx) error {
	var req services.CreateStaffInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.userService.CreateStaff(c.UserContext(), &req)
	if err != nil {
		return h.userError(c, err, "Failed to create user")
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"user": user,
	})
}

// SetUserRole handles moving a staff account between roles (Admin only)
// @Summary Set account role
// @Description Switch a staff account between OFFICER and ADMIN; its sessions are revoked (Admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.SetRoleInput true "Role data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) SetUserRole(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	var req services.SetRoleInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.userService.SetUserRole(c.UserContext(), id, currentUserID(c), &req)
	if err != nil {
		return h.userError(c, err, "Failed to set user role")
	}

	return response.Success(c, "User role updated successfully", fiber.Map{
		"user": user,
	})
}

// SetLoginDisabled handles blocking or unblocking login (Admin only)
// @Summary Enable or disable login
// @Description Disabling revokes every session of the account (Admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.SetLoginDisabledInput true "Login switch"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/login [put]
func (h *UserHandler) SetLoginDisabled(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	var req services.SetLoginDisabledInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.userService.SetLoginDisabled(c.UserContext(), id, currentUserID(c), req.Disabled)
	if err != nil {
		return h.userError(c, err, "Failed to update login")
	}

	return response.Success(c, "User login updated successfully", fiber.Map{
		"user": user,
	})
}

// ChangePassword handles changing the caller's password
// @Summary Change password
// @Description Change the current user's password; every session is signed out
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Password data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChangePasswordInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.userService.ChangePassword(c.UserContext(), userID, &req); err != nil {
		return h.userError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password changed successfully", nil)
}

func (h *UserHandler) userError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		return response.Conflict(c, "Email is already registered")
	case errors.Is(err, services.ErrCannotChangeOwnRole):
		return response.BadRequest(c, "Cannot change your own role")
	case errors.Is(err, services.ErrCannotDisableSelf):
		return response.BadRequest(c, "Cannot disable your own account")
	case errors.Is(err, services.ErrApplicantRoleFixed):
		return response.BadRequest(c, "Applicant accounts cannot change role")
	case errors.Is(err, services.ErrInvalidStaffRole):
		return response.BadRequest(c, "Role must be OFFICER or ADMIN")
	case errors.Is(err, services.ErrOldPasswordWrong):
		return response.BadRequest(c, "Old password is incorrect")
	default:
		return response.InternalServerError(c, fallback)
	}
}

func currentUserID(c *fiber.Ctx) uint {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return 0
	}
	return principal.Claims.UserID
}
