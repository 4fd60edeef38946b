package config

import (
	"context"
	"errors"
	"log"
	"strings"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if _, err := SeedMasterData(ctx, s.db); err != nil {
		return err
	}

	if err := s.seedAdminUser(ctx); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first staff account from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD. Staff accounts own no onboarding record.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.AdminEmail))
	if email == "" || s.cfg.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	users := repositories.NewAuthUserRepository(s.db)
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.AuthUser{
		Email:    email,
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}
