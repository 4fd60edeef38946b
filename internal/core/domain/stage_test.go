package domain

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestNewProgress(t *testing.T) {
	tests := []struct {
		name    string
		stage   int
		answer  *int
		want    Progress
		wantErr error
	}{
		{"fresh record", 1, nil, Progress{Stage: StagePersonalData}, nil},
		{"unanswered flag", 1, intPtr(0), Progress{Stage: StagePersonalData}, nil},
		{"self at stage one", 1, intPtr(1), Progress{Stage: StagePersonalData}, nil},
		{"other at stage one", 1, intPtr(2), Progress{Stage: StagePersonalData, BeneficiaryPending: true}, nil},
		{"other after beneficiary step", 2, intPtr(2), Progress{Stage: StageBankData}, nil},
		{"finished", 5, intPtr(1), Progress{Stage: StageFinished}, nil},
		{"stage zero", 0, nil, Progress{}, ErrInvalidStage},
		{"stage six", 6, nil, Progress{}, ErrInvalidStage},
		{"bad flag", 1, intPtr(7), Progress{}, ErrInvalidBeneficiaryFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewProgress(tt.stage, tt.answer, false, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewProgress() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("NewProgress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	fresh := Progress{Stage: StagePersonalData}
	pending := Progress{Stage: StagePersonalData, BeneficiaryPending: true}
	bank := Progress{Stage: StageBankData}
	employment := Progress{Stage: StageEmploymentData}
	supporting := Progress{Stage: StageSupportingData}
	finished := Progress{Stage: StageFinished, Finished: true}

	tests := []struct {
		name     string
		step     Step
		progress Progress
		want     Decision
		wantErr  error
	}{
		{"personal on fresh", StepPersonalData, fresh, Allow, nil},
		{"personal twice", StepPersonalData, bank, Noop, ErrStageAlreadyPassed},
		{"personal while beneficiary pending", StepPersonalData, pending, Noop, ErrStageAlreadyPassed},
		{"beneficiary before personal", StepBeneficiaryOwner, fresh, Reject, ErrStageTooEarly},
		{"beneficiary when pending", StepBeneficiaryOwner, pending, Allow, nil},
		{"beneficiary after self branch", StepBeneficiaryOwner, bank, Noop, ErrStageAlreadyPassed},
		{"bank too early", StepBankData, fresh, Reject, ErrStageTooEarly},
		{"bank while beneficiary pending", StepBankData, pending, Reject, ErrStageTooEarly},
		{"bank at stage two", StepBankData, bank, Allow, nil},
		{"bank twice", StepBankData, employment, Noop, ErrStageAlreadyPassed},
		{"employment at stage three", StepEmploymentData, employment, Allow, nil},
		{"employment too early", StepEmploymentData, bank, Reject, ErrStageTooEarly},
		{"supporting at stage four", StepSupportingData, supporting, Allow, nil},
		{"supporting when finished", StepSupportingData, finished, Noop, ErrStageAlreadyPassed},
		{"rejected application", StepBankData, Progress{Stage: StageBankData, Rejected: true}, Reject, ErrApplicationRejected},
		{"unknown step", Step("photo"), fresh, Reject, ErrUnknownStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Gate(tt.step, tt.progress)
			if got != tt.want {
				t.Fatalf("Gate() = %s, want %s", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Gate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		step     Step
		progress Progress
		answer   BeneficiaryAnswer
		want     Progress
		wantErr  error
	}{
		{"personal self skips beneficiary", StepPersonalData, Progress{Stage: StagePersonalData}, BeneficiarySelf,
			Progress{Stage: StageBankData}, nil},
		{"personal other waits for beneficiary", StepPersonalData, Progress{Stage: StagePersonalData}, BeneficiaryOther,
			Progress{Stage: StagePersonalData, BeneficiaryPending: true}, nil},
		{"personal without answer", StepPersonalData, Progress{Stage: StagePersonalData}, BeneficiaryUnanswered,
			Progress{Stage: StagePersonalData}, ErrInvalidBeneficiaryFlag},
		{"personal with unknown answer", StepPersonalData, Progress{Stage: StagePersonalData}, BeneficiaryAnswer(9),
			Progress{Stage: StagePersonalData}, ErrInvalidBeneficiaryFlag},
		{"beneficiary", StepBeneficiaryOwner, Progress{Stage: StagePersonalData, BeneficiaryPending: true}, BeneficiaryUnanswered,
			Progress{Stage: StageBankData}, nil},
		{"bank", StepBankData, Progress{Stage: StageBankData}, BeneficiaryUnanswered,
			Progress{Stage: StageEmploymentData}, nil},
		{"employment", StepEmploymentData, Progress{Stage: StageEmploymentData}, BeneficiaryUnanswered,
			Progress{Stage: StageSupportingData}, nil},
		{"supporting finishes", StepSupportingData, Progress{Stage: StageSupportingData}, BeneficiaryUnanswered,
			Progress{Stage: StageFinished, Finished: true}, nil},
		{"refuses a gated step", StepEmploymentData, Progress{Stage: StageBankData}, BeneficiaryUnanswered,
			Progress{Stage: StageBankData}, ErrStageTooEarly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.step, tt.progress, tt.answer)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Advance() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("Advance() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAdvanceNeverMovesBackwards(t *testing.T) {
	starts := []Progress{
		{Stage: StagePersonalData},
		{Stage: StagePersonalData, BeneficiaryPending: true},
		{Stage: StageBankData},
		{Stage: StageEmploymentData},
		{Stage: StageSupportingData},
		{Stage: StageFinished, Finished: true},
	}
	answers := []BeneficiaryAnswer{BeneficiarySelf, BeneficiaryOther}

	for _, start := range starts {
		for _, step := range Steps() {
			for _, answer := range answers {
				next, err := Advance(step, start, answer)
				if err != nil {
					if next != start {
						t.Fatalf("Advance(%s, %+v) changed progress on error: %+v", step, start, next)
					}
					continue
				}
				if next.position() <= start.position() {
					t.Fatalf("Advance(%s, %+v) = %+v, not forward", step, start, next)
				}
			}
		}
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		progress Progress
		want     Step
		wantOK   bool
	}{
		{Progress{Stage: StagePersonalData}, StepPersonalData, true},
		{Progress{Stage: StagePersonalData, BeneficiaryPending: true}, StepBeneficiaryOwner, true},
		{Progress{Stage: StageBankData}, StepBankData, true},
		{Progress{Stage: StageEmploymentData}, StepEmploymentData, true},
		{Progress{Stage: StageSupportingData}, StepSupportingData, true},
		{Progress{Stage: StageFinished, Finished: true}, "", false},
		{Progress{Stage: StageBankData, Rejected: true}, "", false},
	}
	for _, tt := range tests {
		got, ok := NextStep(tt.progress)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("NextStep(%+v) = (%q, %v), want (%q, %v)", tt.progress, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsBusinessRule(t *testing.T) {
	if !IsBusinessRule(ErrStageAlreadyPassed) {
		t.Fatalf("ErrStageAlreadyPassed should be a business rule")
	}
	if !IsBusinessRule(errors.Join(errors.New("context"), ErrUnderage)) {
		t.Fatalf("wrapped ErrUnderage should be a business rule")
	}
	if IsBusinessRule(ErrPersistence) {
		t.Fatalf("ErrPersistence must not be a business rule")
	}
	if IsBusinessRule(ErrInvalidStage) {
		t.Fatalf("ErrInvalidStage must not be a business rule")
	}
	if IsBusinessRule(nil) {
		t.Fatalf("nil must not be a business rule")
	}
}
