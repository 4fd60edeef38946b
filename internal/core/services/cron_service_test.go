package services

import (
	"context"
	"testing"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
)

func TestPurge(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	tokenRepo := repositories.NewRefreshTokenRepository(env.db)
	userRepo := repositories.NewAuthUserRepository(env.db)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	user := &models.AuthUser{
		Email:                  "staff@example.com",
		Password:               "x",
		Role:                   "OFFICER",
		IsActive:               true,
		ResetPasswordKey:       "stale",
		ResetPasswordExpiresAt: &past,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	for _, token := range []*models.RefreshToken{
		{UserID: user.ID, TokenHash: "expired", ExpiresAt: past},
		{UserID: user.ID, TokenHash: "revoked", ExpiresAt: future, RevokedAt: &past},
		{UserID: user.ID, TokenHash: "active", ExpiresAt: future},
	} {
		if err := tokenRepo.Create(ctx, token); err != nil {
			t.Fatalf("create token: %v", err)
		}
	}

	svc := NewCronService(tokenRepo, userRepo, "@every 1h")
	report, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if report.RefreshTokens != 2 || report.ResetKeys != 1 {
		t.Fatalf("report = %+v", report)
	}

	active, err := tokenRepo.CountActiveByUserID(ctx, user.ID)
	if err != nil || active != 1 {
		t.Fatalf("active tokens = %d, %v", active, err)
	}
	reloaded, err := userRepo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ResetPasswordKey != "" || reloaded.ResetPasswordExpiresAt != nil {
		t.Fatalf("reset key not cleared: %+v", reloaded)
	}
}

func TestCronRejectsBadSchedule(t *testing.T) {
	svc := NewCronService(nil, nil, "every now and then")
	if err := svc.Start(); err == nil {
		svc.Stop()
		t.Fatal("expected schedule error")
	}
}
