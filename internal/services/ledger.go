package services

import (
	"context"
	"strings"
	"sync"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// LedgerServiceRepository defines the repository methods needed by LedgerService
type LedgerServiceRepository interface {
	repository.LedgerRepository
	repository.DrawRepository
}

// LedgerService owns every write to the point ledger. All mutations go
// through one mutex so increments, draw commits and resets are linearizable.
type LedgerService struct {
	log  logger.Logger
	repo LedgerServiceRepository
	mu   sync.Mutex
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(log logger.Logger, repo LedgerServiceRepository) *LedgerService {
	return &LedgerService{log: log, repo: repo}
}

// AddPoints adds delta (possibly negative) to the user's total, creating the
// entry if needed. A non-empty displayName replaces the stored one. Totals
// clamp at zero.
func (s *LedgerService) AddPoints(ctx context.Context, userID, displayName string, delta int) (*models.LedgerEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.repo.AddPoints(ctx, userID, displayName, delta)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	entry := &models.LedgerEntry{UserID: userID, DisplayName: displayName, Points: total}
	if displayName == "" {
		// the store kept the previous name
		if stored, err := s.repo.GetLedgerEntry(ctx, userID); err == nil {
			entry.DisplayName = stored.DisplayName
		}
	}
	return entry, nil
}

// CommitDraw records a draw, its cooldown mark and its points atomically.
// Returns the user's new total.
func (s *LedgerService) CommitDraw(ctx context.Context, rec models.DrawRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.repo.CommitDraw(ctx, rec)
	if err != nil {
		return 0, errors.Persistence(err)
	}
	return total, nil
}

// ResetAll zeroes every entry, keeping users and display names
func (s *LedgerService) ResetAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.repo.ResetLedger(ctx)
	if err != nil {
		return 0, errors.Persistence(err)
	}
	s.log.Info("Ledger reset", "entries", n)
	return n, nil
}

// SnapshotAndReset zeroes every entry and returns the ranking as it stood
// just before. No draw or adjustment can commit between the two.
func (s *LedgerService) SnapshotAndReset(ctx context.Context) ([]models.RankedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.SnapshotAndResetLedger(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	s.log.Info("Ledger reset", "entries", len(entries))
	return RankEntries(entries), nil
}

// Get returns the user's entry
func (s *LedgerService) Get(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	e, err := s.repo.GetLedgerEntry(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user has no ranking entry")
	}
	return e, nil
}

// History returns a user's most recent draws
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error) {
	records, err := s.repo.ListDraws(ctx, userID, limit)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return records, nil
}
