package services

import (
	"cmp"
	"context"
	"slices"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// LeaderboardService derives ranked views from the ledger
type LeaderboardService struct {
	repo repository.LedgerRepository
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(repo repository.LedgerRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

// RankEntries sorts entries by points descending and numbers them from 1.
// The sort is stable, so entries given in ledger insertion order keep that
// order among equal totals.
func RankEntries(entries []models.LedgerEntry) []models.RankedEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.LedgerEntry) int {
		return cmp.Compare(b.Points, a.Points)
	})

	ranked := make([]models.RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = models.RankedEntry{
			Rank:        i + 1,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Points:      e.Points,
		}
	}
	return ranked
}

// RankedView returns every ledger entry in rank order
func (s *LeaderboardService) RankedView(ctx context.Context) ([]models.RankedEntry, error) {
	entries, err := s.repo.ListLedger(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return RankEntries(entries), nil
}

// RankOf returns the user's 1-based position in RankedView
func (s *LeaderboardService) RankOf(ctx context.Context, userID string) (int, error) {
	ranked, err := s.RankedView(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range ranked {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return 0, errors.NotFoundf("user %s has no ranking entry", userID)
}

// TopN returns the first n entries of RankedView
func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]models.RankedEntry, error) {
	ranked, err := s.RankedView(ctx)
	if err != nil {
		return nil, err
	}
	return topN(ranked, n), nil
}

func topN(ranked []models.RankedEntry, n int) []models.RankedEntry {
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		return ranked[:n]
	}
	return ranked
}
