package repositories

import (
	"context"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OnboardingFilter narrows the officer listing
type OnboardingFilter struct {
	Stage    int
	Rejected *bool
	Finished *bool
	Search   string
}

// OnboardingStats aggregates record counts for the dashboard
type OnboardingStats struct {
	Total           int64
	ByStage         map[int]int64
	Finished        int64
	Rejected        int64
	Revised         int64
	RegisteredSince int64
}

// onboardingRepository implements OnboardingRepository interface
type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository creates a new onboarding repository
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

// WithTx returns a repository issuing every statement through tx
func (r *onboardingRepository) WithTx(tx *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: tx}
}

// Create inserts the record and its auxiliary request row with the same id
func (r *onboardingRepository) Create(ctx context.Context, record *models.OnboardingRecord, request *models.OnboardingRequest) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		return err
	}
	request.AutoNID = record.AutoNID
	return db.Create(request).Error
}

// GetByID gets a record without locking it
func (r *onboardingRepository) GetByID(ctx context.Context, id uint) (*models.OnboardingRecord, error) {
	var record models.OnboardingRecord
	err := r.db.WithContext(ctx).Where("auto_nid = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRequest gets the auxiliary row without locking it
func (r *onboardingRepository) GetRequest(ctx context.Context, id uint) (*models.OnboardingRequest, error) {
	var request models.OnboardingRequest
	err := r.db.WithContext(ctx).Where("auto_nid = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// LockForUpdate reads the record row and then the auxiliary row with
// SELECT ... FOR UPDATE. Must run on a transaction handle.
func (r *onboardingRepository) LockForUpdate(ctx context.Context, id uint) (*models.OnboardingRecord, *models.OnboardingRequest, error) {
	var record models.OnboardingRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("auto_nid = ?", id).
		First(&record).Error
	if err != nil {
		return nil, nil, err
	}

	var request models.OnboardingRequest
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("auto_nid = ?", id).
		First(&request).Error
	if err != nil {
		return nil, nil, err
	}
	return &record, &request, nil
}

// UpdateRecord writes fields to the record row
func (r *onboardingRepository) UpdateRecord(ctx context.Context, id uint, fields map[string]any) error {
	return r.updates(ctx, &models.OnboardingRecord{}, id, fields)
}

// UpdateRequest writes fields to the auxiliary row
func (r *onboardingRepository) UpdateRequest(ctx context.Context, id uint, fields map[string]any) error {
	return r.updates(ctx, &models.OnboardingRequest{}, id, fields)
}

func (r *onboardingRepository) updates(ctx context.Context, model any, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(model).Where("auto_nid = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists records for officers, newest first
func (r *onboardingRepository) List(ctx context.Context, filter OnboardingFilter, offset, limit int) ([]*models.OnboardingRecord, int64, error) {
	var records []*models.OnboardingRecord
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Stage > 0 {
			db = db.Where("stage = ?", filter.Stage)
		}
		if filter.Rejected != nil {
			db = db.Where("is_rejected = ?", *filter.Rejected)
		}
		if filter.Finished != nil {
			db = db.Where("is_finished = ?", *filter.Finished)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			db = db.Where("full_name LIKE ? OR email LIKE ? OR idcard_number LIKE ?", like, like, like)
		}
		return db
	}

	err := r.db.WithContext(ctx).Model(&models.OnboardingRecord{}).Scopes(scope).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.db.WithContext(ctx).
		Scopes(scope).
		Omit("idcard_file", "selfie_file", "signature_file").
		Order("auto_nid DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Stats counts records per stage and flag
func (r *onboardingRepository) Stats(ctx context.Context, since time.Time) (*OnboardingStats, error) {
	stats := &OnboardingStats{ByStage: make(map[int]int64)}
	db := r.db.WithContext(ctx).Model(&models.OnboardingRecord{})

	var rows []struct {
		Stage int
		Total int64
	}
	if err := db.Select("stage, COUNT(*) AS total").Group("stage").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStage[row.Stage] = row.Total
		stats.Total += row.Total
	}

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.Finished, "is_finished = ?", []any{true}},
		{&stats.Rejected, "is_rejected = ?", []any{true}},
		{&stats.Revised, "is_revised = ?", []any{true}},
		{&stats.RegisteredSince, "created_at >= ?", []any{since}},
	}
	for _, c := range counts {
		err := r.db.WithContext(ctx).
			Model(&models.OnboardingRecord{}).
			Where(c.query, c.args...).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
