package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
)

func TestOptionListAndSearch(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	repo := repositories.NewOptionRepository(env.db)
	svc := NewOptionService(repo)
	ctx := context.Background()

	err := repo.Upsert(ctx, []*models.Option{
		{Category: "city", Code: "3171", Description: "Jakarta Pusat", SortOrder: 1, IsActive: true},
		{Category: "city", Code: "3173", Description: "Jakarta Barat", SortOrder: 2, IsActive: true},
		{Category: "city", Code: "3273", Description: "Bandung", SortOrder: 3, IsActive: true},
		{Category: "city", Code: "9999", Description: "Jakarta Lama", SortOrder: 4, IsActive: false},
		{Category: "religion", Code: "1", Description: "Islam", SortOrder: 1, IsActive: true},
	})
	if err != nil {
		t.Fatalf("seed options: %v", err)
	}

	cities, err := svc.List(ctx, "city")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cities) != 3 || cities[0].Code != "3171" {
		t.Fatalf("cities = %d, first %q", len(cities), cities[0].Code)
	}

	found, err := svc.Search(ctx, "city", "jakarta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 || found[0].Description != "Jakarta Barat" {
		t.Fatalf("search = %d rows", len(found))
	}

	if short, err := svc.Search(ctx, "city", "j"); err != nil || len(short) != 0 {
		t.Fatalf("short query = %d rows, %v", len(short), err)
	}
	if _, err := svc.List(ctx, "planet"); !errors.Is(err, ErrUnknownOptionCategory) {
		t.Fatalf("unknown category: %v", err)
	}

	err = repo.Upsert(ctx, []*models.Option{
		{Category: "city", Code: "3273", Description: "Kota Bandung", SortOrder: 3, IsActive: true},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	found, err = svc.Search(ctx, "city", "bandung")
	if err != nil || len(found) != 1 || found[0].Description != "Kota Bandung" {
		t.Fatalf("upsert did not update description: %v", err)
	}
}
