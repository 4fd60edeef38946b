package services

import (
	"context"
	"time"

	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	repo repositories.OnboardingRepository
	now  func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo repositories.OnboardingRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

// ============================================================
// Officer Dashboard
// ============================================================

// StageCount is the number of applications whose stored stage is Stage
type StageCount struct {
	Stage domain.Stage `json:"stage"`
	Name  string       `json:"name"`
	Total int64        `json:"total"`
}

// DashboardData represents officer dashboard data
type DashboardData struct {
	TotalApplications int64        `json:"total_applications"`
	Finished          int64        `json:"finished"`
	Rejected          int64        `json:"rejected"`
	Revised           int64        `json:"revised"`
	RegisteredToday   int64        `json:"registered_today"`
	ByStage           []StageCount `json:"by_stage"`
}

// GetDashboard returns application counts for the officer dashboard
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats, err := s.repo.Stats(ctx, startOfDay)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		TotalApplications: stats.Total,
		Finished:          stats.Finished,
		Rejected:          stats.Rejected,
		Revised:           stats.Revised,
		RegisteredToday:   stats.RegisteredSince,
		ByStage:           make([]StageCount, 0, int(domain.StageFinished)),
	}
	for stage := domain.StagePersonalData; stage <= domain.StageFinished; stage++ {
		data.ByStage = append(data.ByStage, StageCount{
			Stage: stage,
			Name:  stage.String(),
			Total: stats.ByStage[int(stage)],
		})
	}
	return data, nil
}
