package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Onboarding tables
// ============================================================

// OnboardingRecord is one applicant's customer information file (onboarding_records)
type OnboardingRecord struct {
	AutoNID uint `gorm:"column:auto_nid;primaryKey;autoIncrement" json:"record_id"`
	Stage   int  `gorm:"column:stage;not null;index" json:"stage"`

	IsRejected bool       `gorm:"column:is_rejected;not null" json:"is_rejected"`
	IsRevised  bool       `gorm:"column:is_revised;not null" json:"is_revised"`
	IsFinished bool       `gorm:"column:is_finished;not null;index" json:"is_finished"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	RejectedAt *time.Time `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	RevisedAt  *time.Time `gorm:"column:revised_at" json:"revised_at,omitempty"`

	// Registration
	Email          string `gorm:"column:email;size:100;not null;index" json:"email"`
	MobilePhone    string `gorm:"column:mobile_phone;size:20;not null" json:"mobile_phone"`
	FullName       string `gorm:"column:full_name;size:100;not null" json:"full_name"`
	ClientCategory int    `gorm:"column:client_category" json:"client_category"`
	Sales          int    `gorm:"column:sales" json:"sales"`
	Referral       string `gorm:"column:referral;size:50" json:"referral"`
	AppIPAddress   string `gorm:"column:app_ip_address;size:45" json:"app_ip_address"`

	// Personal data
	MotherName        string     `gorm:"column:mother_name;size:100" json:"mother_name"`
	IDCardNumber      string     `gorm:"column:idcard_number;size:20;index" json:"idcard_number"`
	IDCardExpireDate  *time.Time `gorm:"column:idcard_expire_date" json:"idcard_expire_date,omitempty"`
	IDCardCountry     string     `gorm:"column:idcard_country;size:50" json:"idcard_country"`
	Nationality       int        `gorm:"column:nationality" json:"nationality"`
	Sex               int        `gorm:"column:sex" json:"sex"`
	BirthPlace        string     `gorm:"column:birth_place;size:100" json:"birth_place"`
	BirthDate         *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	BirthCountry      string     `gorm:"column:birth_country;size:50" json:"birth_country"`
	Religion          int        `gorm:"column:religion" json:"religion"`
	MaritalStatus     int        `gorm:"column:marital_status" json:"marital_status"`
	Education         int        `gorm:"column:education" json:"education"`
	CopyID            bool       `gorm:"column:copy_id" json:"copy_id"`
	IDCardCity        int        `gorm:"column:idcard_city" json:"idcard_city"`
	IDCardDistrict    string     `gorm:"column:idcard_district;size:100" json:"idcard_district"`
	IDCardSubdistrict string     `gorm:"column:idcard_subdistrict;size:100" json:"idcard_subdistrict"`
	IDCardRT          string     `gorm:"column:idcard_rt;size:5" json:"idcard_rt"`
	IDCardRW          string     `gorm:"column:idcard_rw;size:5" json:"idcard_rw"`
	IDCardZipcode     string     `gorm:"column:idcard_zipcode;size:10" json:"idcard_zipcode"`
	IDCardAddress     string     `gorm:"column:idcard_address;size:255" json:"idcard_address"`
	DomicileCity      int        `gorm:"column:domicile_city" json:"domicile_city"`
	DomicileDistrict  string     `gorm:"column:domicile_district;size:100" json:"domicile_district"`
	DomicileSubdist   string     `gorm:"column:domicile_subdistrict;size:100" json:"domicile_subdistrict"`
	DomicileRT        string     `gorm:"column:domicile_rt;size:5" json:"domicile_rt"`
	DomicileRW        string     `gorm:"column:domicile_rw;size:5" json:"domicile_rw"`
	DomicileZipcode   string     `gorm:"column:domicile_zipcode;size:10" json:"domicile_zipcode"`
	DomicileAddress   string     `gorm:"column:domicile_address;size:255" json:"domicile_address"`
	IDCardFile        string     `gorm:"column:idcard_file;type:text" json:"-"`
	SelfieFile        string     `gorm:"column:selfie_file;type:text" json:"-"`
	SignatureFile     string     `gorm:"column:signature_file;type:text" json:"-"`

	// Bank data
	QuestionRDN       int    `gorm:"column:question_rdn" json:"question_rdn"`
	BankName          string `gorm:"column:bank_name;size:100" json:"bank_name"`
	BankBranch        string `gorm:"column:bank_branch;size:100" json:"bank_branch"`
	BankAccountHolder string `gorm:"column:bank_account_holder;size:100" json:"bank_account_holder"`
	BankAccountNumber string `gorm:"column:bank_account_number;size:30" json:"bank_account_number"`

	// Employment data
	Occupation          int             `gorm:"column:occupation" json:"occupation"`
	CompanyName         string          `gorm:"column:company_name;size:100" json:"company_name"`
	JobTitle            string          `gorm:"column:job_title;size:100" json:"job_title"`
	BusinessField       string          `gorm:"column:business_field;size:100" json:"business_field"`
	CompanyAddress      string          `gorm:"column:company_address;size:255" json:"company_address"`
	CompanyCity         int             `gorm:"column:company_city" json:"company_city"`
	CompanyPhone        string          `gorm:"column:company_phone;size:20" json:"company_phone"`
	WorkingSince        *time.Time      `gorm:"column:working_since" json:"working_since,omitempty"`
	IncomeSource        int             `gorm:"column:income_source" json:"income_source"`
	MonthlyIncome       decimal.Decimal `gorm:"column:monthly_income;type:decimal(18,2)" json:"monthly_income"`
	InvestmentObjective int             `gorm:"column:investment_objective" json:"investment_objective"`

	// Supporting questionnaire
	Question1     bool   `gorm:"column:question_1" json:"question_1"`
	Question1Text string `gorm:"column:question_1_text;size:255" json:"question_1_text"`
	Question2     bool   `gorm:"column:question_2" json:"question_2"`
	Question2Text string `gorm:"column:question_2_text;size:255" json:"question_2_text"`
	Question3     bool   `gorm:"column:question_3" json:"question_3"`
	Question3Text string `gorm:"column:question_3_text;size:255" json:"question_3_text"`
	Question4     bool   `gorm:"column:question_4" json:"question_4"`
	Question4Text string `gorm:"column:question_4_text;size:255" json:"question_4_text"`
	AgreeTerms    bool   `gorm:"column:agree_terms" json:"agree_terms"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OnboardingRecord) TableName() string {
	return "onboarding_records"
}

// OnboardingRequest holds secondary attributes keyed by the record id (onboarding_requests)
type OnboardingRequest struct {
	AutoNID          uint `gorm:"column:auto_nid;primaryKey;autoIncrement:false" json:"record_id"`
	ResidencyStatus  int  `gorm:"column:residency_status" json:"residency_status"`
	BeneficiaryOwner *int `gorm:"column:beneficiary_owner" json:"beneficiary_owner"`

	BeneficiaryName         string `gorm:"column:beneficiary_name;size:100" json:"beneficiary_name"`
	BeneficiaryIDCardNumber string `gorm:"column:beneficiary_idcard_number;size:20" json:"beneficiary_idcard_number"`
	BeneficiaryRelationship string `gorm:"column:beneficiary_relationship;size:50" json:"beneficiary_relationship"`
	BeneficiaryPhone        string `gorm:"column:beneficiary_phone;size:20" json:"beneficiary_phone"`
	BeneficiaryAddress      string `gorm:"column:beneficiary_address;size:255" json:"beneficiary_address"`
	BeneficiaryOccupation   int    `gorm:"column:beneficiary_occupation" json:"beneficiary_occupation"`
	BeneficiaryIncomeSource int    `gorm:"column:beneficiary_income_source" json:"beneficiary_income_source"`

	EmergencyName         string `gorm:"column:emergency_name;size:100" json:"emergency_name"`
	EmergencyRelationship string `gorm:"column:emergency_relationship;size:50" json:"emergency_relationship"`
	EmergencyPhone        string `gorm:"column:emergency_phone;size:20" json:"emergency_phone"`
	EmergencyAddress      string `gorm:"column:emergency_address;size:255" json:"emergency_address"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OnboardingRequest) TableName() string {
	return "onboarding_requests"
}

// ============================================================
// Auth tables
// ============================================================

// AuthUser holds credentials (auth_users). Applicants own exactly one onboarding
// record through WebCIFNID; officers and admins have none.
type AuthUser struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	WebCIFNID              *uint      `gorm:"column:web_cif_nid;uniqueIndex" json:"record_id"`
	Email                  string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password               string     `gorm:"size:255;not null" json:"-"`
	Role                   string     `gorm:"size:20;not null" json:"role"`
	IsActive               bool       `gorm:"not null" json:"is_active"`
	ActivationKey          string     `gorm:"size:64;index" json:"-"`
	ActivatedAt            *time.Time `json:"activated_at,omitempty"`
	ResetPasswordKey       string     `gorm:"size:64;index" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	DisabledLogin          bool       `gorm:"not null" json:"disabled_login"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
	LoginCount             int        `gorm:"not null" json:"login_count"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AuthUser) TableName() string {
	return "auth_users"
}

// AuthUserResponse DTO
type AuthUserResponse struct {
	ID            uint       `json:"id"`
	RecordID      *uint      `json:"record_id,omitempty"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	DisabledLogin bool       `json:"disabled_login"`
	FullName      string     `json:"full_name,omitempty"`
	MobilePhone   string     `json:"mobile_phone,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (u *AuthUser) ToResponse() *AuthUserResponse {
	return &AuthUserResponse{
		ID:            u.ID,
		RecordID:      u.WebCIFNID,
		Email:         u.Email,
		Role:          u.Role,
		IsActive:      u.IsActive,
		DisabledLogin: u.DisabledLogin,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

// RecordID returns the owned onboarding record id, 0 for staff accounts
func (u *AuthUser) RecordID() uint {
	if u.WebCIFNID == nil {
		return 0
	}
	return *u.WebCIFNID
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Reference tables
// ============================================================

// Option is a reference list entry shown in onboarding forms (ref_options)
type Option struct {
	ID          uint      `gorm:"primaryKey" json:"data_id"`
	Category    string    `gorm:"size:40;not null;uniqueIndex:idx_option_category_code" json:"-"`
	Code        string    `gorm:"size:20;not null;uniqueIndex:idx_option_category_code" json:"code"`
	Description string    `gorm:"size:150;not null;index" json:"description"`
	ParentCode  string    `gorm:"size:20" json:"parent_code,omitempty"`
	SortOrder   int       `gorm:"not null" json:"-"`
	IsActive    bool      `gorm:"not null" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}

func (Option) TableName() string {
	return "ref_options"
}

// All returns every model managed by migrations
func All() []any {
	return []any{
		&OnboardingRecord{},
		&OnboardingRequest{},
		&AuthUser{},
		&RefreshToken{},
		&Option{},
	}
}
