package handlers

import (
	"strconv"
	"strings"

	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/pagination"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles officer back-office endpoints
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListApplications lists onboarding applications
// @Summary List applications
// @Description Paginated applications, newest first (Officer/Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param stage query int false "Stored stage 1-5"
// @Param rejected query bool false "Rejected filter"
// @Param finished query bool false "Finished filter"
// @Param search query string false "Name, email or phone"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/onboarding [get]
func (h *AdminHandler) ListApplications(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.OnboardingFilter{
		Stage:    c.QueryInt("stage", 0),
		Rejected: queryBool(c, "rejected"),
		Finished: queryBool(c, "finished"),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	records, total, err := h.adminService.List(c.UserContext(), filter, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list applications")
	}

	return response.Success(c, "Applications retrieved successfully", pagination.NewResponse(records, params, total))
}

// GetApplication returns one application with its progress
// @Summary Get application
// @Description Full record, request row and progress (Officer/Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/onboarding/{id} [get]
func (h *AdminHandler) GetApplication(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid record ID")
	}
	return renderResult(c, h.adminService.Get(c.UserContext(), id))
}

// RejectApplication rejects an application
// @Summary Reject application
// @Description Mark an application rejected; no further steps are accepted (Officer/Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/onboarding/{id}/reject [post]
func (h *AdminHandler) RejectApplication(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid record ID")
	}
	return renderResult(c, h.adminService.Reject(c.UserContext(), id))
}

// RequestRevision sends an application back to an earlier stage
// @Summary Request revision
// @Description Move the application back to a lower stage so the applicant resubmits (Officer/Admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param body body services.RevisionInput true "Target stage"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/onboarding/{id}/revise [post]
func (h *AdminHandler) RequestRevision(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return response.BadRequest(c, "Invalid record ID")
	}
	var req services.RevisionInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.adminService.RequestRevision(c.UserContext(), id, &req))
}

func pathID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryBool returns nil when the parameter is absent or not a boolean
func queryBool(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
