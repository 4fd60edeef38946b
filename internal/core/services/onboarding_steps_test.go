package services

import (
	"errors"
	"testing"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/core/domain"

	"github.com/shopspring/decimal"
)

func TestPersonalDataRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *PersonalDataInput)
		wantErr error
	}{
		{"adult with lifetime card", func(in *PersonalDataInput) {}, nil},
		{"turns seventeen today", func(in *PersonalDataInput) { in.BirthDate = "2007-06-01" }, nil},
		{"one day short of seventeen", func(in *PersonalDataInput) { in.BirthDate = "2007-06-02" }, domain.ErrUnderage},
		{"expired card", func(in *PersonalDataInput) { in.IDCardExpireDate = "2024-05-31" }, domain.ErrIDCardExpired},
		{"card expiring today", func(in *PersonalDataInput) { in.IDCardExpireDate = "2024-06-01" }, nil},
		{"unparseable birth date", func(in *PersonalDataInput) { in.BirthDate = "17/08/1990" }, domain.ErrInvalidDate},
		{"unparseable card date", func(in *PersonalDataInput) { in.IDCardExpireDate = "soon" }, domain.ErrIDCardExpired},
		{"unanswered beneficiary", func(in *PersonalDataInput) { in.BeneficiaryOwner = 0 }, domain.ErrInvalidBeneficiaryFlag},
		{"unknown beneficiary answer", func(in *PersonalDataInput) { in.BeneficiaryOwner = 7 }, domain.ErrInvalidBeneficiaryFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := personalInput(int(domain.BeneficiarySelf))
			tt.mutate(in)

			_, err := personalDataStep{in: in}.Prepare(&models.OnboardingRecord{}, &models.OnboardingRequest{}, fixedNow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPersonalDataDomicile(t *testing.T) {
	in := personalInput(int(domain.BeneficiaryOther))
	in.CopyID = false
	in.DomicileAddress = "Jl. Kebon Jeruk 3"
	in.DomicileCity = 3173

	m, err := personalDataStep{in: in}.Prepare(&models.OnboardingRecord{}, &models.OnboardingRequest{}, fixedNow)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if m.Record["domicile_address"] != "Jl. Kebon Jeruk 3" || m.Record["domicile_city"] != 3173 {
		t.Fatalf("domicile = %v / %v", m.Record["domicile_address"], m.Record["domicile_city"])
	}
	if m.Answer != domain.BeneficiaryOther || m.Request["beneficiary_owner"] != int(domain.BeneficiaryOther) {
		t.Fatalf("answer = %v, request = %v", m.Answer, m.Request["beneficiary_owner"])
	}
	if _, ok := m.Record["stage"]; ok {
		t.Fatal("processors must not set the stage")
	}
}

func TestBankHolderMatchesNormalizedName(t *testing.T) {
	record := &models.OnboardingRecord{FullName: "Budi  Santoso"}

	for _, holder := range []string{"BUDI SANTOSO", "budi santoso", " Budi Santoso. "} {
		in := bankInput()
		in.BankAccountHolder = holder
		if _, err := (bankDataStep{in: in}).Prepare(record, nil, fixedNow); err != nil {
			t.Fatalf("holder %q: %v", holder, err)
		}
	}

	in := bankInput()
	in.BankAccountHolder = "Budi Santosa"
	if _, err := (bankDataStep{in: in}).Prepare(record, nil, fixedNow); !errors.Is(err, domain.ErrAccountHolderMismatch) {
		t.Fatalf("err = %v, want mismatch", err)
	}
}

func TestEmploymentIncome(t *testing.T) {
	in := employmentInput()
	in.MonthlyIncome = decimal.RequireFromString("-1.00")
	if _, err := (employmentDataStep{in: in}).Prepare(nil, nil, fixedNow); !errors.Is(err, domain.ErrNegativeIncome) {
		t.Fatalf("err = %v, want negative income", err)
	}

	in.MonthlyIncome = decimal.RequireFromString("7500000.456")
	in.WorkingSince = "2019-02-01"
	m, err := employmentDataStep{in: in}.Prepare(nil, nil, fixedNow)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	income := m.Record["monthly_income"].(decimal.Decimal)
	if !income.Equal(decimal.RequireFromString("7500000.46")) {
		t.Fatalf("income = %s, want rounded to cents", income)
	}
	if m.Record["working_since"] == nil {
		t.Fatal("working since not parsed")
	}

	in.WorkingSince = "Feb 2019"
	if _, err := (employmentDataStep{in: in}).Prepare(nil, nil, fixedNow); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("err = %v, want invalid date", err)
	}
}

func TestSupportingDataRules(t *testing.T) {
	record := &models.OnboardingRecord{MobilePhone: "081234567890"}

	in := supportingInput()
	in.EmergencyPhone = "+6281234567890"
	if _, err := (supportingDataStep{in: in}).Prepare(record, nil, fixedNow); !errors.Is(err, domain.ErrEmergencyContactIsApplicant) {
		t.Fatalf("err = %v, want emergency contact rejection", err)
	}

	in = supportingInput()
	in.Question2Text = "ignored when the answer is no"
	m, err := supportingDataStep{in: in}.Prepare(record, nil, fixedNow)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if m.Record["question_2_text"] != "" {
		t.Fatalf("question 2 text = %q, want cleared", m.Record["question_2_text"])
	}
	if m.Record["question_1_text"] != "Stocks" {
		t.Fatalf("question 1 text = %q", m.Record["question_1_text"])
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+6281234567890":  "081234567890",
		"6281234567890":   "081234567890",
		"0812-3456-7890":  "081234567890",
		" 0812 3456 789 ": "08123456789",
	}
	for in, want := range tests {
		if got := normalizePhone(in); got != want {
			t.Errorf("normalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
