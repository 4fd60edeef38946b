package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/core/domain"

	"github.com/shopspring/decimal"
)

const (
	dateLayout   = "2006-01-02"
	minimumAge   = 17
	lifetimeCard = "lifetime"
)

// Mutation is the column change set a step writes in its transaction
type Mutation struct {
	Record  map[string]any
	Request map[string]any
	Answer  domain.BeneficiaryAnswer
}

// StepProcessor checks a step's business rules against the locked rows and
// builds its mutation. Prepare must not touch the database.
type StepProcessor interface {
	Step() domain.Step
	Prepare(record *models.OnboardingRecord, request *models.OnboardingRequest, now time.Time) (*Mutation, error)
}

// ============================================================
// Personal data
// ============================================================

// PersonalDataInput is the personal data step payload
type PersonalDataInput struct {
	MobilePhone      string `json:"mobile_phone" validate:"required,phone"`
	FullName         string `json:"full_name" validate:"required,person_name,max=100"`
	MotherName       string `json:"mother_name" validate:"required,person_name,max=100"`
	IDCardNumber     string `json:"idcard_number" validate:"required,digits,min=15,max=20"`
	Nationality      int    `json:"nationality" validate:"required,gte=1"`
	Sex              int    `json:"sex" validate:"required,oneof=1 2"`
	ResidenceStatus  int    `json:"residence_status" validate:"required,gte=1"`
	BeneficiaryOwner int    `json:"beneficiary_owner" validate:"required,oneof=1 2"`
	BirthPlace       string `json:"birth_place" validate:"required,max=100"`
	BirthDate        string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	BirthCountry     string `json:"birth_country" validate:"required,max=50"`
	Religion         int    `json:"religion" validate:"required,gte=1"`
	MaritalStatus    int    `json:"marital_status" validate:"required,gte=1"`
	Education        int    `json:"education" validate:"required,gte=1"`
	CopyID           bool   `json:"copy_id"`
	IDCardExpireDate string `json:"idcard_expireddate" validate:"required"`
	IDCardCountry    string `json:"idcard_country" validate:"required,max=50"`

	IDCardFile    string `json:"idcard_file" validate:"required,base64_image"`
	SelfieFile    string `json:"selfie_file" validate:"required,base64_image"`
	SignatureFile string `json:"signature_file" validate:"required,base64_image"`

	IDCardCity        int    `json:"idcard_city" validate:"required,gte=1"`
	IDCardDistrict    string `json:"idcard_district" validate:"required,max=100"`
	IDCardSubdistrict string `json:"idcard_subdistrict" validate:"required,max=100"`
	IDCardRT          string `json:"idcard_rt" validate:"required,digits,max=5"`
	IDCardRW          string `json:"idcard_rw" validate:"required,digits,max=5"`
	IDCardAddress     string `json:"idcard_address" validate:"required,max=255"`
	IDCardZipcode     string `json:"idcard_zipcode" validate:"required,digits,max=10"`

	DomicileCity        int    `json:"domicile_city" validate:"required_if=CopyID false"`
	DomicileDistrict    string `json:"domicile_district" validate:"required_if=CopyID false,max=100"`
	DomicileSubdistrict string `json:"domicile_subdistrict" validate:"required_if=CopyID false,max=100"`
	DomicileRT          string `json:"domicile_rt" validate:"required_if=CopyID false,omitempty,digits,max=5"`
	DomicileRW          string `json:"domicile_rw" validate:"required_if=CopyID false,omitempty,digits,max=5"`
	DomicileAddress     string `json:"domicile_address" validate:"required_if=CopyID false,max=255"`
	DomicileZipcode     string `json:"domicile_zipcode" validate:"required_if=CopyID false,omitempty,digits,max=10"`
}

type personalDataStep struct {
	in *PersonalDataInput
}

func (personalDataStep) Step() domain.Step { return domain.StepPersonalData }

func (p personalDataStep) Prepare(_ *models.OnboardingRecord, _ *models.OnboardingRequest, now time.Time) (*Mutation, error) {
	in := p.in

	answer, err := domain.ParseBeneficiaryAnswer(in.BeneficiaryOwner)
	if err != nil || answer == domain.BeneficiaryUnanswered {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBeneficiaryFlag, in.BeneficiaryOwner)
	}

	birthDate, err := time.Parse(dateLayout, in.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: birth date", domain.ErrInvalidDate)
	}
	if ageOn(birthDate, now) < minimumAge {
		return nil, domain.ErrUnderage
	}

	var expireDate *time.Time
	if !strings.EqualFold(strings.TrimSpace(in.IDCardExpireDate), lifetimeCard) {
		d, err := time.Parse(dateLayout, in.IDCardExpireDate)
		if err != nil || d.Before(truncateDay(now)) {
			return nil, domain.ErrIDCardExpired
		}
		expireDate = &d
	}

	domicile := [7]any{
		in.DomicileCity, in.DomicileDistrict, in.DomicileSubdistrict,
		in.DomicileRT, in.DomicileRW, in.DomicileAddress, in.DomicileZipcode,
	}
	if in.CopyID {
		domicile = [7]any{
			in.IDCardCity, in.IDCardDistrict, in.IDCardSubdistrict,
			in.IDCardRT, in.IDCardRW, in.IDCardAddress, in.IDCardZipcode,
		}
	}

	return &Mutation{
		Record: map[string]any{
			"mobile_phone":         strings.TrimSpace(in.MobilePhone),
			"full_name":            strings.TrimSpace(in.FullName),
			"mother_name":          strings.TrimSpace(in.MotherName),
			"idcard_number":        in.IDCardNumber,
			"idcard_expire_date":   expireDate,
			"idcard_country":       in.IDCardCountry,
			"nationality":          in.Nationality,
			"sex":                  in.Sex,
			"birth_place":          in.BirthPlace,
			"birth_date":           birthDate,
			"birth_country":        in.BirthCountry,
			"religion":             in.Religion,
			"marital_status":       in.MaritalStatus,
			"education":            in.Education,
			"copy_id":              in.CopyID,
			"idcard_city":          in.IDCardCity,
			"idcard_district":      in.IDCardDistrict,
			"idcard_subdistrict":   in.IDCardSubdistrict,
			"idcard_rt":            in.IDCardRT,
			"idcard_rw":            in.IDCardRW,
			"idcard_zipcode":       in.IDCardZipcode,
			"idcard_address":       in.IDCardAddress,
			"domicile_city":        domicile[0],
			"domicile_district":    domicile[1],
			"domicile_subdistrict": domicile[2],
			"domicile_rt":          domicile[3],
			"domicile_rw":          domicile[4],
			"domicile_address":     domicile[5],
			"domicile_zipcode":     domicile[6],
			"idcard_file":          in.IDCardFile,
			"selfie_file":          in.SelfieFile,
			"signature_file":       in.SignatureFile,
		},
		Request: map[string]any{
			"residency_status":  in.ResidenceStatus,
			"beneficiary_owner": int(answer),
		},
		Answer: answer,
	}, nil
}

// ============================================================
// Beneficiary owner
// ============================================================

// BeneficiaryOwnerInput is the beneficiary owner step payload
type BeneficiaryOwnerInput struct {
	Name         string `json:"beneficiary_name" validate:"required,person_name,max=100"`
	IDCardNumber string `json:"beneficiary_idcard_number" validate:"required,digits,min=15,max=20"`
	Relationship string `json:"beneficiary_relationship" validate:"required,max=50"`
	Phone        string `json:"beneficiary_phone" validate:"required,phone"`
	Address      string `json:"beneficiary_address" validate:"required,max=255"`
	Occupation   int    `json:"beneficiary_occupation" validate:"required,gte=1"`
	IncomeSource int    `json:"beneficiary_income_source" validate:"required,gte=1"`
}

type beneficiaryOwnerStep struct {
	in *BeneficiaryOwnerInput
}

func (beneficiaryOwnerStep) Step() domain.Step { return domain.StepBeneficiaryOwner }

func (b beneficiaryOwnerStep) Prepare(record *models.OnboardingRecord, _ *models.OnboardingRequest, _ time.Time) (*Mutation, error) {
	in := b.in
	if in.IDCardNumber == record.IDCardNumber {
		return nil, domain.ErrBeneficiaryIsApplicant
	}
	return &Mutation{
		Request: map[string]any{
			"beneficiary_name":          strings.TrimSpace(in.Name),
			"beneficiary_idcard_number": in.IDCardNumber,
			"beneficiary_relationship":  in.Relationship,
			"beneficiary_phone":         normalizePhone(in.Phone),
			"beneficiary_address":       in.Address,
			"beneficiary_occupation":    in.Occupation,
			"beneficiary_income_source": in.IncomeSource,
		},
	}, nil
}

// ============================================================
// Bank data
// ============================================================

// BankDataInput is the bank data step payload
type BankDataInput struct {
	QuestionRDN       int    `json:"question_rdn" validate:"required,oneof=1 2"`
	BankName          string `json:"bank_name" validate:"required,max=100"`
	BankBranch        string `json:"bank_branch" validate:"required,max=100"`
	BankAccountHolder string `json:"bank_account_holder" validate:"required,person_name,max=100"`
	BankAccountNumber string `json:"bank_account_number" validate:"required,digits,min=6,max=30"`
}

type bankDataStep struct {
	in *BankDataInput
}

func (bankDataStep) Step() domain.Step { return domain.StepBankData }

func (b bankDataStep) Prepare(record *models.OnboardingRecord, _ *models.OnboardingRequest, _ time.Time) (*Mutation, error) {
	in := b.in
	if normalizeName(in.BankAccountHolder) != normalizeName(record.FullName) {
		return nil, domain.ErrAccountHolderMismatch
	}
	return &Mutation{
		Record: map[string]any{
			"question_rdn":        in.QuestionRDN,
			"bank_name":           in.BankName,
			"bank_branch":         in.BankBranch,
			"bank_account_holder": strings.TrimSpace(in.BankAccountHolder),
			"bank_account_number": in.BankAccountNumber,
		},
	}, nil
}

// ============================================================
// Employment data
// ============================================================

// EmploymentDataInput is the employment data step payload
type EmploymentDataInput struct {
	Occupation          int             `json:"occupation" validate:"required,gte=1"`
	CompanyName         string          `json:"company_name" validate:"max=100"`
	JobTitle            string          `json:"job_title" validate:"max=100"`
	BusinessField       string          `json:"business_field" validate:"max=100"`
	CompanyAddress      string          `json:"company_address" validate:"max=255"`
	CompanyCity         int             `json:"company_city" validate:"gte=0"`
	CompanyPhone        string          `json:"company_phone" validate:"omitempty,digits,max=20"`
	WorkingSince        string          `json:"working_since" validate:"omitempty,datetime=2006-01-02"`
	IncomeSource        int             `json:"income_source" validate:"required,gte=1"`
	MonthlyIncome       decimal.Decimal `json:"monthly_income"`
	InvestmentObjective int             `json:"investment_objective" validate:"required,gte=1"`
}

type employmentDataStep struct {
	in *EmploymentDataInput
}

func (employmentDataStep) Step() domain.Step { return domain.StepEmploymentData }

func (e employmentDataStep) Prepare(_ *models.OnboardingRecord, _ *models.OnboardingRequest, _ time.Time) (*Mutation, error) {
	in := e.in
	if in.MonthlyIncome.IsNegative() {
		return nil, domain.ErrNegativeIncome
	}

	var workingSince *time.Time
	if in.WorkingSince != "" {
		d, err := time.Parse(dateLayout, in.WorkingSince)
		if err != nil {
			return nil, fmt.Errorf("%w: working since", domain.ErrInvalidDate)
		}
		workingSince = &d
	}

	return &Mutation{
		Record: map[string]any{
			"occupation":           in.Occupation,
			"company_name":         in.CompanyName,
			"job_title":            in.JobTitle,
			"business_field":       in.BusinessField,
			"company_address":      in.CompanyAddress,
			"company_city":         in.CompanyCity,
			"company_phone":        in.CompanyPhone,
			"working_since":        workingSince,
			"income_source":        in.IncomeSource,
			"monthly_income":       in.MonthlyIncome.Round(2),
			"investment_objective": in.InvestmentObjective,
		},
	}, nil
}

// ============================================================
// Supporting data
// ============================================================

// SupportingDataInput is the questionnaire and emergency contact payload
type SupportingDataInput struct {
	Question1     bool   `json:"question_1"`
	Question1Text string `json:"question_1_text" validate:"required_if=Question1 true,max=255"`
	Question2     bool   `json:"question_2"`
	Question2Text string `json:"question_2_text" validate:"required_if=Question2 true,max=255"`
	Question3     bool   `json:"question_3"`
	Question3Text string `json:"question_3_text" validate:"required_if=Question3 true,max=255"`
	Question4     bool   `json:"question_4"`
	Question4Text string `json:"question_4_text" validate:"required_if=Question4 true,max=255"`

	EmergencyName         string `json:"emergency_name" validate:"required,person_name,max=100"`
	EmergencyRelationship string `json:"emergency_relationship" validate:"required,max=50"`
	EmergencyPhone        string `json:"emergency_phone" validate:"required,phone"`
	EmergencyAddress      string `json:"emergency_address" validate:"required,max=255"`

	AgreeTerms bool `json:"agree_terms" validate:"required"`
}

type supportingDataStep struct {
	in *SupportingDataInput
}

func (supportingDataStep) Step() domain.Step { return domain.StepSupportingData }

func (s supportingDataStep) Prepare(record *models.OnboardingRecord, _ *models.OnboardingRequest, _ time.Time) (*Mutation, error) {
	in := s.in
	if normalizePhone(in.EmergencyPhone) == normalizePhone(record.MobilePhone) {
		return nil, domain.ErrEmergencyContactIsApplicant
	}

	answer := func(flag bool, text string) string {
		if !flag {
			return ""
		}
		return strings.TrimSpace(text)
	}

	return &Mutation{
		Record: map[string]any{
			"question_1":      in.Question1,
			"question_1_text": answer(in.Question1, in.Question1Text),
			"question_2":      in.Question2,
			"question_2_text": answer(in.Question2, in.Question2Text),
			"question_3":      in.Question3,
			"question_3_text": answer(in.Question3, in.Question3Text),
			"question_4":      in.Question4,
			"question_4_text": answer(in.Question4, in.Question4Text),
			"agree_terms":     in.AgreeTerms,
		},
		Request: map[string]any{
			"emergency_name":         strings.TrimSpace(in.EmergencyName),
			"emergency_relationship": in.EmergencyRelationship,
			"emergency_phone":        normalizePhone(in.EmergencyPhone),
			"emergency_address":      in.EmergencyAddress,
		},
	}, nil
}

// ============================================================
// helpers
// ============================================================

func ageOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizeName folds case, drops punctuation and collapses spaces
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizePhone maps +62 / 62 / 0 prefixes to a leading 0
func normalizePhone(s string) string {
	s = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "+62"):
		return "0" + s[3:]
	case strings.HasPrefix(s, "62"):
		return "0" + s[2:]
	}
	return s
}
