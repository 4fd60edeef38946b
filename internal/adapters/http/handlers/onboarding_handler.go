package handlers

import (
	"cif-onboarding/internal/adapters/http/middleware"
	"cif-onboarding/internal/core/services"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OnboardingHandler exposes the stage-gated onboarding steps to applicants
type OnboardingHandler struct {
	onboardingService *services.OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboardingService *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// recordID returns the onboarding record owned by the caller
func recordID(c *fiber.Ctx) (uint, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok || principal.SubjectID == 0 {
		return 0, false
	}
	return principal.SubjectID, true
}

// GetProgress returns the applicant's current stage
// @Summary Get onboarding progress
// @Description Current stage, next step and flags of the caller's application
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /onboarding/progress [get]
func (h *OnboardingHandler) GetProgress(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	return renderResult(c, h.onboardingService.GetProgress(c.UserContext(), id))
}

// SavePersonalData submits the personal data step
// @Summary Submit personal data
// @Description Identity card, address and beneficiary answer. Allowed at stage 1 only.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PersonalDataInput true "Personal data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /onboarding/personal-data [post]
func (h *OnboardingHandler) SavePersonalData(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req services.PersonalDataInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.onboardingService.SavePersonalData(c.UserContext(), id, &req))
}

// SaveBeneficiaryOwner submits the beneficiary owner step
// @Summary Submit beneficiary owner
// @Description Only when the personal data step named another beneficial owner
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BeneficiaryOwnerInput true "Beneficiary owner"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /onboarding/beneficiary-owner [post]
func (h *OnboardingHandler) SaveBeneficiaryOwner(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req services.BeneficiaryOwnerInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.onboardingService.SaveBeneficiaryOwner(c.UserContext(), id, &req))
}

// SaveBankData submits the bank account step
// @Summary Submit bank data
// @Description Settlement bank account. Allowed at stage 2 only.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BankDataInput true "Bank data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /onboarding/bank-data [post]
func (h *OnboardingHandler) SaveBankData(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req services.BankDataInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.onboardingService.SaveBankData(c.UserContext(), id, &req))
}

// SaveEmploymentData submits the employment step
// @Summary Submit employment data
// @Description Occupation, employer and income. Allowed at stage 3 only.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.EmploymentDataInput true "Employment data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /onboarding/employment-data [post]
func (h *OnboardingHandler) SaveEmploymentData(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req services.EmploymentDataInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.onboardingService.SaveEmploymentData(c.UserContext(), id, &req))
}

// SaveSupportingData submits the final questionnaire step
// @Summary Submit supporting data
// @Description Emergency contact and questionnaire. Finishes the application.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SupportingDataInput true "Supporting data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /onboarding/supporting-data [post]
func (h *OnboardingHandler) SaveSupportingData(c *fiber.Ctx) error {
	id, ok := recordID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req services.SupportingDataInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return renderResult(c, h.onboardingService.SaveSupportingData(c.UserContext(), id, &req))
}
