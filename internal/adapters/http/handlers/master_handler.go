package handlers

import (
	"errors"
	"strings"

	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MasterHandler serves the reference master data used by onboarding forms
type MasterHandler struct {
	optionService *services.OptionService
}

// NewMasterHandler creates a new master handler
func NewMasterHandler(optionService *services.OptionService) *MasterHandler {
	return &MasterHandler{optionService: optionService}
}

// ListOptions lists or searches the options of a category
// @Summary List reference options
// @Description Options for a form field (nationality, religion, marital-status, education, occupation, income-source, bank, city). With q, a description search.
// @Tags Master
// @Produce json
// @Param category path string true "Option category"
// @Param q query string false "Search text, at least 2 characters"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /option/{category} [get]
func (h *MasterHandler) ListOptions(c *fiber.Ctx) error {
	category := strings.ToLower(c.Params("category"))

	var (
		options any
		err     error
	)
	if q, ok := c.Queries()["q"]; ok {
		options, err = h.optionService.Search(c.UserContext(), category, q)
	} else {
		options, err = h.optionService.List(c.UserContext(), category)
	}
	if err != nil {
		if errors.Is(err, services.ErrUnknownOptionCategory) {
			return response.NotFound(c, "Unknown option category")
		}
		return response.InternalServerError(c, "Failed to list options")
	}

	return response.Success(c, "Options retrieved successfully", fiber.Map{
		"category": category,
		"options":  options,
	})
}
