package handlers

import (
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/response"
	"cif-onboarding/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// bindAndValidate parses the JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports false when the request is unusable.
func bindAndValidate(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if errs := validation.Validate(dst); len(errs) > 0 {
		return false, response.ValidationFailed(c, errs)
	}
	return true, nil
}

// renderResult maps the write-engine envelope onto HTTP:
// infrastructure failure 500, missing record 404, business rule 400, success 200
func renderResult[T any](c *fiber.Ctx, res services.Result[T]) error {
	switch {
	case res.Err != nil:
		logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", res.Err)
		return response.InternalServerError(c, res.Message)
	case res.IsNotFound():
		return response.NotFound(c, res.Message)
	case !res.Succeeded:
		return response.Fail(c, fiber.StatusBadRequest, res.Message, res.Data)
	default:
		return response.Success(c, res.Message, res.Data)
	}
}
