package testutil

import (
	"context"
	"testing"

	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SeedCharacters adds characters to repo in order, failing the test on error.
func SeedCharacters(t *testing.T, repo repository.CatalogRepository, characters ...models.Character) {
	t.Helper()

	for _, c := range characters {
		if err := repo.CreateCharacter(context.Background(), c); err != nil {
			t.Fatalf("failed to seed character %s: %v", c.ID, err)
		}
	}
}

// Character builds a catalog entry with the given tier and rate.
func Character(id string, tier gacha.Tier, rate float64) models.Character {
	return models.Character{
		ID:    id,
		Rank:  tier,
		Name:  "Character " + id,
		Image: "https://img.example/" + id + ".png",
		Rate:  rate,
	}
}

// SeedLedger awards points to each user in order, failing the test on error.
// Each entry is {userID, displayName, points}.
func SeedLedger(t *testing.T, repo repository.LedgerRepository, entries ...models.LedgerEntry) {
	t.Helper()

	for _, e := range entries {
		if _, err := repo.AddPoints(context.Background(), e.UserID, e.DisplayName, e.Points); err != nil {
			t.Fatalf("failed to seed ledger for %s: %v", e.UserID, err)
		}
	}
}
