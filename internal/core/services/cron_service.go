package services

import (
	"context"
	"fmt"
	"time"

	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const purgeTimeout = time.Minute

// PurgeReport counts rows removed by one maintenance run
type PurgeReport struct {
	RefreshTokens int64 `json:"refresh_tokens"`
	ResetKeys     int64 `json:"reset_keys"`
}

// CronService runs scheduled maintenance
type CronService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	userRepo         repositories.AuthUserRepository
	schedule         string
	cron             *cron.Cron
	now              func() time.Time
}

// NewCronService creates a new cron service; schedule uses cron syntax or
// descriptors such as "@every 1h"
func NewCronService(refreshTokenRepo repositories.RefreshTokenRepository, userRepo repositories.AuthUserRepository, schedule string) *CronService {
	return &CronService{
		refreshTokenRepo: refreshTokenRepo,
		userRepo:         userRepo,
		schedule:         schedule,
		cron:             cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		now:              time.Now,
	}
}

// Start registers the maintenance job and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if _, err := s.Purge(ctx); err != nil {
			logger.Error(ctx, "maintenance purge failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	logger.Info(context.Background(), "cron service started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info(context.Background(), "cron service stopped")
}

// Purge deletes expired or revoked refresh tokens and clears expired reset keys
func (s *CronService) Purge(ctx context.Context) (*PurgeReport, error) {
	tokens, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete refresh tokens: %w", err)
	}
	keys, err := s.userRepo.ClearExpiredResetKeys(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("clear reset keys: %w", err)
	}

	report := &PurgeReport{RefreshTokens: tokens, ResetKeys: keys}
	logger.Info(ctx, "maintenance purge finished", "refresh_tokens", tokens, "reset_keys", keys)
	return report, nil
}
