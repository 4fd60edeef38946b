package repositories

import (
	"context"

	"cif-onboarding/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// optionRepository implements OptionRepository interface
type optionRepository struct {
	db *gorm.DB
}

// NewOptionRepository creates a new option repository
func NewOptionRepository(db *gorm.DB) OptionRepository {
	return &optionRepository{db: db}
}

// ListByCategory lists active options of a category in display order
func (r *optionRepository) ListByCategory(ctx context.Context, category string) ([]*models.Option, error) {
	var options []*models.Option
	err := r.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("sort_order ASC, description ASC").
		Find(&options).Error
	return options, err
}

// Search finds active options whose description contains query
func (r *optionRepository) Search(ctx context.Context, category, query string, limit int) ([]*models.Option, error) {
	var options []*models.Option
	err := r.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Where("LOWER(description) LIKE LOWER(?)", "%"+query+"%").
		Order("description ASC").
		Limit(limit).
		Find(&options).Error
	return options, err
}

// Upsert inserts options, updating description and order on (category, code) conflicts
func (r *optionRepository) Upsert(ctx context.Context, options []*models.Option) error {
	if len(options) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "parent_code", "sort_order", "is_active"}),
		}).
		CreateInBatches(options, 100).Error
}
