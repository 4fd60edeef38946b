package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleOfficer   Role = "OFFICER"
	RoleAdmin     Role = "ADMIN"
)

// OptionCategory groups reference options shown in onboarding forms
type OptionCategory string

const (
	OptionNationality   OptionCategory = "nationality"
	OptionReligion      OptionCategory = "religion"
	OptionMaritalStatus OptionCategory = "marital-status"
	OptionEducation     OptionCategory = "education"
	OptionOccupation    OptionCategory = "occupation"
	OptionIncomeSource  OptionCategory = "income-source"
	OptionBank          OptionCategory = "bank"
	OptionCity          OptionCategory = "city"
)

// OptionCategories lists every category served by the option endpoints
func OptionCategories() []OptionCategory {
	return []OptionCategory{
		OptionNationality,
		OptionReligion,
		OptionMaritalStatus,
		OptionEducation,
		OptionOccupation,
		OptionIncomeSource,
		OptionBank,
		OptionCity,
	}
}

// Valid reports whether c is a known category
func (c OptionCategory) Valid() bool {
	for _, known := range OptionCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ProgressView is the read-only summary of an application
type ProgressView struct {
	RecordID           uint       `json:"record_id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Stage              Stage      `json:"stage"`
	StageName          string     `json:"stage_name"`
	NextStep           Step       `json:"next_step,omitempty"`
	BeneficiaryPending bool       `json:"beneficiary_pending"`
	IsRejected         bool       `json:"is_rejected"`
	IsRevised          bool       `json:"is_revised"`
	IsFinished         bool       `json:"is_finished"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewProgressView builds a summary from derived progress
func NewProgressView(recordID uint, email, fullName string, p Progress, revised bool, finishedAt *time.Time, createdAt time.Time) ProgressView {
	next, _ := NextStep(p)
	return ProgressView{
		RecordID:           recordID,
		Email:              email,
		FullName:           fullName,
		Stage:              p.Stage,
		StageName:          p.Stage.String(),
		NextStep:           next,
		BeneficiaryPending: p.BeneficiaryPending,
		IsRejected:         p.Rejected,
		IsRevised:          revised,
		IsFinished:         p.Finished,
		FinishedAt:         finishedAt,
		CreatedAt:          createdAt,
	}
}
