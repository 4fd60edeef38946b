package domain

import "errors"

// Stage gate errors
var (
	ErrStageTooEarly          = errors.New("previous onboarding step has not been completed")
	ErrStageAlreadyPassed     = errors.New("step already completed")
	ErrApplicationRejected    = errors.New("application has been rejected")
	ErrInvalidBeneficiaryFlag = errors.New("invalid beneficiary owner answer")
	ErrUnknownStep            = errors.New("unknown onboarding step")
	ErrInvalidStage           = errors.New("record has an invalid stage")
)

// Record errors
var (
	ErrRecordNotFound       = errors.New("onboarding record not found")
	ErrInvalidRevisionStage = errors.New("revision stage must be lower than the current stage")
	ErrPersistence          = errors.New("persistence error")
)

// Step business rules
var (
	ErrUnderage                    = errors.New("applicant must be at least 17 years old")
	ErrIDCardExpired               = errors.New("id card has expired")
	ErrAccountHolderMismatch       = errors.New("bank account holder must match the applicant's full name")
	ErrBeneficiaryIsApplicant      = errors.New("beneficiary owner must be someone other than the applicant")
	ErrEmergencyContactIsApplicant = errors.New("emergency contact phone must differ from the applicant's phone")
	ErrNegativeIncome              = errors.New("monthly income cannot be negative")
	ErrInvalidDate                 = errors.New("date must be formatted as YYYY-MM-DD")
)

var businessRules = []error{
	ErrStageTooEarly,
	ErrStageAlreadyPassed,
	ErrApplicationRejected,
	ErrInvalidBeneficiaryFlag,
	ErrUnknownStep,
	ErrRecordNotFound,
	ErrInvalidRevisionStage,
	ErrUnderage,
	ErrIDCardExpired,
	ErrAccountHolderMismatch,
	ErrBeneficiaryIsApplicant,
	ErrEmergencyContactIsApplicant,
	ErrNegativeIncome,
	ErrInvalidDate,
}

// IsBusinessRule reports whether err is an ordinary negative outcome that may be
// shown to the applicant, as opposed to an infrastructure failure.
func IsBusinessRule(err error) bool {
	if err == nil {
		return false
	}
	for _, rule := range businessRules {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
