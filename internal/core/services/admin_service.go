package services

import (
	"context"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/logger"
	"cif-onboarding/internal/pkg/pagination"
	"cif-onboarding/internal/pkg/txguard"
)

// ApplicationDetail is the officer view of one application
type ApplicationDetail struct {
	Record   *models.OnboardingRecord  `json:"record"`
	Request  *models.OnboardingRequest `json:"request"`
	Progress domain.ProgressView       `json:"progress"`
}

// AdminAction describes a record after an officer write
type AdminAction struct {
	RecordID   uint         `json:"record_id"`
	Stage      domain.Stage `json:"stage"`
	IsRejected bool         `json:"is_rejected"`
	IsRevised  bool         `json:"is_revised"`
	IsFinished bool         `json:"is_finished"`
}

// RevisionInput asks the applicant to redo steps from Stage onwards
type RevisionInput struct {
	Stage int `json:"stage" validate:"required,gte=1,lte=4"`
}

// AdminService handles officer back-office operations
type AdminService struct {
	pool      *txguard.Pool
	repo      repositories.OnboardingRepository
	notifier  Notifier
	txTimeout time.Duration
	now       func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(pool *txguard.Pool, repo repositories.OnboardingRepository, notifier Notifier, txTimeout time.Duration) *AdminService {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &AdminService{
		pool:      pool,
		repo:      repo,
		notifier:  notifierOrNoop(notifier),
		txTimeout: txTimeout,
		now:       time.Now,
	}
}

// List lists applications, newest first
func (s *AdminService) List(ctx context.Context, filter repositories.OnboardingFilter, params *pagination.Params) ([]*models.OnboardingRecord, int64, error) {
	return s.repo.List(ctx, filter, params.Offset, params.Limit)
}

// Get returns one application with its auxiliary data
func (s *AdminService) Get(ctx context.Context, recordID uint) Result[ApplicationDetail] {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return resultOf[ApplicationDetail](persistenceError(err), "", nil)
	}
	request, err := s.repo.GetRequest(ctx, recordID)
	if err != nil {
		return resultOf[ApplicationDetail](persistenceError(err), "", nil)
	}
	progress, err := lockedProgress(record, request)
	if err != nil {
		return Fault[ApplicationDetail](err)
	}

	detail := &ApplicationDetail{
		Record:   record,
		Request:  request,
		Progress: domain.NewProgressView(record.AutoNID, record.Email, record.FullName, progress, record.IsRevised, record.FinishedAt, record.CreatedAt),
	}
	return Succeed("Application retrieved", detail)
}

// Reject closes an application; no further steps are accepted
func (s *AdminService) Reject(ctx context.Context, recordID uint) Result[AdminAction] {
	var rejected *models.OnboardingRecord

	action, err := s.withLockedRecord(ctx, recordID, func(record *models.OnboardingRecord, request *models.OnboardingRequest, progress domain.Progress) (map[string]any, map[string]any, error) {
		if progress.Rejected {
			return nil, nil, domain.ErrApplicationRejected
		}
		rejected = record
		record.IsRejected = true
		return map[string]any{
			"is_rejected": true,
			"rejected_at": s.now(),
		}, nil, nil
	})

	res := resultOf(err, "Application rejected", action)
	s.log(ctx, "reject", recordID, res)
	if res.Succeeded {
		s.notifier.NotifyApplicationRejected(rejected)
	}
	return res
}

// RequestRevision moves an application back to an earlier stage. The stage
// never moves forward through this path.
func (s *AdminService) RequestRevision(ctx context.Context, recordID uint, in *RevisionInput) Result[AdminAction] {
	target := domain.Stage(in.Stage)
	var revised *models.OnboardingRecord

	action, err := s.withLockedRecord(ctx, recordID, func(record *models.OnboardingRecord, request *models.OnboardingRequest, progress domain.Progress) (map[string]any, map[string]any, error) {
		if progress.Rejected {
			return nil, nil, domain.ErrApplicationRejected
		}
		if !target.Valid() || target >= progress.Stage {
			return nil, nil, domain.ErrInvalidRevisionStage
		}
		revised = record
		record.Stage = int(target)
		record.IsRevised = true
		record.IsFinished = false

		fields := map[string]any{
			"stage":       int(target),
			"is_revised":  true,
			"revised_at":  s.now(),
			"is_finished": false,
			"finished_at": nil,
		}
		var requestFields map[string]any
		if target == domain.StagePersonalData {
			requestFields = map[string]any{"beneficiary_owner": nil}
		}
		return fields, requestFields, nil
	})

	res := resultOf(err, "Revision requested", action)
	s.log(ctx, "revise", recordID, res)
	if res.Succeeded {
		s.notifier.NotifyRevisionRequested(revised, target.String())
	}
	return res
}

// lockedWrite validates the locked rows, mirrors its change onto record and
// returns the record and auxiliary field maps to write
type lockedWrite func(record *models.OnboardingRecord, request *models.OnboardingRequest, progress domain.Progress) (map[string]any, map[string]any, error)

// withLockedRecord runs fn against the locked rows and writes its field maps
// in the same guarded transaction
func (s *AdminService) withLockedRecord(ctx context.Context, recordID uint, fn lockedWrite) (*AdminAction, error) {
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
	progress, err := lockedProgress(record, request)
	if err != nil {
		return nil, err
	}

	fields, requestFields, err := fn(record, request, progress)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateRecord(ctx, recordID, fields); err != nil {
		return nil, persistenceError(err)
	}
	if err := repo.UpdateRequest(ctx, recordID, requestFields); err != nil {
		return nil, persistenceError(err)
	}
	if err := guard.Commit(); err != nil {
		return nil, err
	}

	return &AdminAction{
		RecordID:   record.AutoNID,
		Stage:      domain.Stage(record.Stage),
		IsRejected: record.IsRejected,
		IsRevised:  record.IsRevised,
		IsFinished: record.IsFinished,
	}, nil
}

func (s *AdminService) log(ctx context.Context, action string, recordID uint, res Result[AdminAction]) {
	switch {
	case res.Err != nil:
		logger.Error(ctx, "admin action failed", "action", action, "record_id", recordID, "error", res.Err)
	case !res.Succeeded:
		logger.Info(ctx, "admin action refused", "action", action, "record_id", recordID, "reason", res.Message)
	default:
		logger.Info(ctx, "admin action applied", "action", action, "record_id", recordID)
	}
}
