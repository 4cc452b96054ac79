package services

import (
	"context"
	"time"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// DefaultCooldown is the minimum interval between a user's draws
const DefaultCooldown = 60 * time.Minute

// CooldownService tracks when each user last drew
type CooldownService struct {
	repo   repository.CooldownRepository
	window time.Duration
	now    func() time.Time
}

// NewCooldownService creates a CooldownService. A non-positive window uses
// DefaultCooldown and a nil clock uses time.Now.
func NewCooldownService(repo repository.CooldownRepository, window time.Duration, now func() time.Time) *CooldownService {
	if window <= 0 {
		window = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &CooldownService{repo: repo, window: window, now: now}
}

// Window returns the configured cooldown duration
func (s *CooldownService) Window() time.Duration {
	return s.window
}

// Remaining returns how long the user must still wait. Users who never drew get 0.
func (s *CooldownService) Remaining(ctx context.Context, userID string) (time.Duration, error) {
	last, ok, err := s.repo.GetLastDraw(ctx, userID)
	if err != nil {
		return 0, errors.Persistence(err)
	}
	if !ok {
		return 0, nil
	}
	return remainingAt(s.window, last, s.now()), nil
}

// MarkDrawn records now as the user's last draw
func (s *CooldownService) MarkDrawn(ctx context.Context, userID string) error {
	if err := s.repo.MarkDrawn(ctx, userID, s.now()); err != nil {
		return errors.Persistence(err)
	}
	return nil
}

// remainingAt is max(0, window - (now - last))
func remainingAt(window time.Duration, last, now time.Time) time.Duration {
	remaining := window - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}
