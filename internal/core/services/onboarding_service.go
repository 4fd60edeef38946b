package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/metrics"
	"cif-onboarding/internal/pkg/txguard"

	"gorm.io/gorm"
)

const defaultTxTimeout = 10 * time.Second

var stepMessages = map[domain.Step]string{
	domain.StepPersonalData:     "Personal data saved",
	domain.StepBeneficiaryOwner: "Beneficiary owner saved",
	domain.StepBankData:         "Bank data saved",
	domain.StepEmploymentData:   "Employment data saved",
	domain.StepSupportingData:   "Supporting data saved, application submitted",
}

// StepOutcome describes the record after a step
type StepOutcome struct {
	RecordID uint         `json:"record_id"`
	Step     domain.Step  `json:"step"`
	Stage    domain.Stage `json:"stage"`
	NextStep domain.Step  `json:"next_step,omitempty"`
	Finished bool         `json:"is_finished"`
}

func outcomeOf(recordID uint, step domain.Step, p domain.Progress) *StepOutcome {
	next, _ := domain.NextStep(p)
	return &StepOutcome{
		RecordID: recordID,
		Step:     step,
		Stage:    p.Stage,
		NextStep: next,
		Finished: p.Finished,
	}
}

// OnboardingOptions configures OnboardingService
type OnboardingOptions struct {
	TxTimeout time.Duration
	Metrics   *metrics.Metrics
	Notifier  Notifier
}

// OnboardingService applies onboarding steps. Every step runs in its own
// guarded transaction with the record row locked for the whole step.
type OnboardingService struct {
	pool      *txguard.Pool
	repo      repositories.OnboardingRepository
	notifier  Notifier
	metrics   *metrics.Metrics
	txTimeout time.Duration
	now       func() time.Time
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(pool *txguard.Pool, repo repositories.OnboardingRepository, opts OnboardingOptions) *OnboardingService {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = defaultTxTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &OnboardingService{
		pool:      pool,
		repo:      repo,
		notifier:  notifierOrNoop(opts.Notifier),
		metrics:   opts.Metrics,
		txTimeout: opts.TxTimeout,
		now:       time.Now,
	}
}

// SavePersonalData applies the personal data step
func (s *OnboardingService) SavePersonalData(ctx context.Context, recordID uint, in *PersonalDataInput) Result[StepOutcome] {
	return s.apply(ctx, recordID, personalDataStep{in: in})
}

// SaveBeneficiaryOwner applies the beneficiary owner step
func (s *OnboardingService) SaveBeneficiaryOwner(ctx context.Context, recordID uint, in *BeneficiaryOwnerInput) Result[StepOutcome] {
	return s.apply(ctx, recordID, beneficiaryOwnerStep{in: in})
}

// SaveBankData applies the bank data step
func (s *OnboardingService) SaveBankData(ctx context.Context, recordID uint, in *BankDataInput) Result[StepOutcome] {
	return s.apply(ctx, recordID, bankDataStep{in: in})
}

// SaveEmploymentData applies the employment data step
func (s *OnboardingService) SaveEmploymentData(ctx context.Context, recordID uint, in *EmploymentDataInput) Result[StepOutcome] {
	return s.apply(ctx, recordID, employmentDataStep{in: in})
}

// SaveSupportingData applies the last step and finishes the application
func (s *OnboardingService) SaveSupportingData(ctx context.Context, recordID uint, in *SupportingDataInput) Result[StepOutcome] {
	return s.apply(ctx, recordID, supportingDataStep{in: in})
}

// GetProgress returns the read-only summary of an application
func (s *OnboardingService) GetProgress(ctx context.Context, recordID uint) Result[domain.ProgressView] {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return resultOf[domain.ProgressView](persistenceError(err), "", nil)
	}
	request, err := s.repo.GetRequest(ctx, recordID)
	if err != nil {
		return resultOf[domain.ProgressView](persistenceError(err), "", nil)
	}
	progress, err := domain.NewProgress(record.Stage, request.BeneficiaryOwner, record.IsRejected, record.IsFinished)
	if err != nil {
		return Fault[domain.ProgressView](corruptRecord(recordID, err))
	}
	view := domain.NewProgressView(record.AutoNID, record.Email, record.FullName, progress, record.IsRevised, record.FinishedAt, record.CreatedAt)
	return Succeed("Progress retrieved", &view)
}

func (s *OnboardingService) apply(ctx context.Context, recordID uint, proc StepProcessor) Result[StepOutcome] {
	step := proc.Step()
	outcome, err := s.write(ctx, recordID, proc)
	res := resultOf(err, stepMessages[step], outcome)

	s.metrics.StepOutcomes.WithLabelValues(string(step), res.outcomeLabel()).Inc()
	switch {
	case res.Err != nil:
		logger.Error(ctx, "onboarding step failed", "step", step, "record_id", recordID, "error", res.Err)
	case !res.Succeeded:
		logger.Info(ctx, "onboarding step refused", "step", step, "record_id", recordID, "reason", res.Message)
	default:
		logger.Info(ctx, "onboarding step applied", "step", step, "record_id", recordID, "stage", outcome.Stage)
	}
	return res
}

// write runs one step: lock, gate, prepare, advance, update, commit.
// Gate refusals return the current progress alongside the reason.
func (s *OnboardingService) write(ctx context.Context, recordID uint, proc StepProcessor) (*StepOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	guard, err := txguard.Begin(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	repo := s.repo.WithTx(guard.DB())
	record, request, err := repo.LockForUpdate(ctx, recordID)
	if err != nil {
		return nil, persistenceError(err)
	}

	progress, err := domain.NewProgress(record.Stage, request.BeneficiaryOwner, record.IsRejected, record.IsFinished)
	if err != nil {
		return nil, corruptRecord(recordID, err)
	}

	step := proc.Step()
	if decision, err := domain.Gate(step, progress); decision != domain.Allow {
		return outcomeOf(recordID, step, progress), err
	}

	now := s.now()
	mutation, err := proc.Prepare(record, request, now)
	if err != nil {
		return nil, err
	}

	next, err := domain.Advance(step, progress, mutation.Answer)
	if err != nil {
		return nil, err
	}

	fields := mutation.Record
	if fields == nil {
		fields = make(map[string]any, 3)
	}
	fields["stage"] = int(next.Stage)
	if next.Finished {
		fields["is_finished"] = true
		fields["finished_at"] = now
	}

	if err := repo.UpdateRecord(ctx, recordID, fields); err != nil {
		return nil, persistenceError(err)
	}
	if err := repo.UpdateRequest(ctx, recordID, mutation.Request); err != nil {
		return nil, persistenceError(err)
	}
	if err := guard.Commit(); err != nil {
		return nil, err
	}

	if next.Finished {
		s.notifier.NotifyApplicationFinished(record)
	}
	return outcomeOf(recordID, step, next), nil
}

// persistenceError maps repository errors into the domain taxonomy
func persistenceError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrRecordNotFound
	case txguard.IsInfrastructure(err):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

// corruptRecord reports stored columns the gate cannot interpret. The cause is
// flattened so it is never classified as a business rule.
func corruptRecord(recordID uint, err error) error {
	return fmt.Errorf("%w: record %d: %v", domain.ErrPersistence, recordID, err)
}

// lockedProgress is used by back-office writes that need the gate's view of a locked row
func lockedProgress(record *models.OnboardingRecord, request *models.OnboardingRequest) (domain.Progress, error) {
	progress, err := domain.NewProgress(record.Stage, request.BeneficiaryOwner, record.IsRejected, record.IsFinished)
	if err != nil {
		return progress, corruptRecord(record.AutoNID, err)
	}
	return progress, nil
}
