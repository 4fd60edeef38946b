package domain

import "fmt"

// Stage is the persisted position of an onboarding record
type Stage int

const (
	StagePersonalData   Stage = 1
	StageBankData       Stage = 2
	StageEmploymentData Stage = 3
	StageSupportingData Stage = 4
	StageFinished       Stage = 5
)

// Valid reports whether s is one of the five known stages
func (s Stage) Valid() bool {
	return s >= StagePersonalData && s <= StageFinished
}

func (s Stage) String() string {
	switch s {
	case StagePersonalData:
		return "personal_data"
	case StageBankData:
		return "bank_data"
	case StageEmploymentData:
		return "employment_data"
	case StageSupportingData:
		return "supporting_data"
	case StageFinished:
		return "finished"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Step identifies one onboarding submission
type Step string

const (
	StepPersonalData     Step = "personal-data"
	StepBeneficiaryOwner Step = "beneficiary-owner"
	StepBankData         Step = "bank-data"
	StepEmploymentData   Step = "employment-data"
	StepSupportingData   Step = "supporting-data"
)

// Steps lists every step in submission order
func Steps() []Step {
	return []Step{
		StepPersonalData,
		StepBeneficiaryOwner,
		StepBankData,
		StepEmploymentData,
		StepSupportingData,
	}
}

// BeneficiaryAnswer is the applicant's declaration of who ultimately owns the account
type BeneficiaryAnswer int

const (
	BeneficiaryUnanswered BeneficiaryAnswer = 0
	BeneficiarySelf       BeneficiaryAnswer = 1
	BeneficiaryOther      BeneficiaryAnswer = 2
)

// ParseBeneficiaryAnswer validates a stored or submitted beneficiary flag
func ParseBeneficiaryAnswer(v int) (BeneficiaryAnswer, error) {
	switch a := BeneficiaryAnswer(v); a {
	case BeneficiaryUnanswered, BeneficiarySelf, BeneficiaryOther:
		return a, nil
	}
	return BeneficiaryUnanswered, fmt.Errorf("%w: %d", ErrInvalidBeneficiaryFlag, v)
}

// Progress is the gate's view of a record, derived from the locked row
type Progress struct {
	Stage              Stage
	BeneficiaryPending bool
	Rejected           bool
	Finished           bool
}

// NewProgress derives progress from persisted columns. answer is the stored
// beneficiary flag of the auxiliary record, nil when never answered.
func NewProgress(stage int, answer *int, rejected, finished bool) (Progress, error) {
	s := Stage(stage)
	if !s.Valid() {
		return Progress{}, fmt.Errorf("%w: %d", ErrInvalidStage, stage)
	}
	a := BeneficiaryUnanswered
	if answer != nil {
		parsed, err := ParseBeneficiaryAnswer(*answer)
		if err != nil {
			return Progress{}, err
		}
		a = parsed
	}
	return Progress{
		Stage:              s,
		BeneficiaryPending: s == StagePersonalData && a == BeneficiaryOther,
		Rejected:           rejected,
		Finished:           finished,
	}, nil
}

// position orders progress points; the beneficiary sub-step sits between
// personal data and bank data while the stored stage is still 1.
type position int

const (
	posPersonalData position = iota
	posBeneficiaryOwner
	posBankData
	posEmploymentData
	posSupportingData
	posFinished
)

func (p Progress) position() position {
	switch p.Stage {
	case StagePersonalData:
		if p.BeneficiaryPending {
			return posBeneficiaryOwner
		}
		return posPersonalData
	case StageBankData:
		return posBankData
	case StageEmploymentData:
		return posEmploymentData
	case StageSupportingData:
		return posSupportingData
	}
	return posFinished
}

// transition is one row of the step table
type transition struct {
	at   position
	next Progress
}

var transitions = map[Step]transition{
	StepPersonalData:     {at: posPersonalData, next: Progress{Stage: StageBankData}},
	StepBeneficiaryOwner: {at: posBeneficiaryOwner, next: Progress{Stage: StageBankData}},
	StepBankData:         {at: posBankData, next: Progress{Stage: StageEmploymentData}},
	StepEmploymentData:   {at: posEmploymentData, next: Progress{Stage: StageSupportingData}},
	StepSupportingData:   {at: posSupportingData, next: Progress{Stage: StageFinished, Finished: true}},
}

// Decision is the gate outcome for a step
type Decision int

const (
	Allow Decision = iota + 1
	Reject
	Noop
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Reject:
		return "reject"
	case Noop:
		return "noop"
	}
	return "unknown"
}

// Gate decides whether step may be applied to a record at p.
// Every step is write-once: a step whose position has been passed is a Noop.
func Gate(step Step, p Progress) (Decision, error) {
	t, ok := transitions[step]
	if !ok {
		return Reject, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if p.Rejected {
		return Reject, ErrApplicationRejected
	}
	switch at := p.position(); {
	case at < t.at:
		return Reject, ErrStageTooEarly
	case at > t.at:
		return Noop, ErrStageAlreadyPassed
	}
	return Allow, nil
}

// Advance computes the progress after step succeeds. The personal data step
// branches on the beneficiary answer carried by the request.
func Advance(step Step, p Progress, answer BeneficiaryAnswer) (Progress, error) {
	if d, err := Gate(step, p); d != Allow {
		return p, err
	}
	next := transitions[step].next
	next.Rejected = p.Rejected

	if step == StepPersonalData {
		switch answer {
		case BeneficiarySelf:
		case BeneficiaryOther:
			next = Progress{Stage: StagePersonalData, BeneficiaryPending: true}
		default:
			return p, fmt.Errorf("%w: %d", ErrInvalidBeneficiaryFlag, answer)
		}
	}
	return next, nil
}

// NextStep returns the step the applicant has to submit next
func NextStep(p Progress) (Step, bool) {
	if p.Rejected {
		return "", false
	}
	at := p.position()
	for _, step := range Steps() {
		if transitions[step].at == at {
			return step, true
		}
	}
	return "", false
}
