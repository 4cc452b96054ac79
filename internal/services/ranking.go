package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

// DefaultGachaTitle names the gacha in announcements when no title is set
const DefaultGachaTitle = "this gacha"

// WinnerDirectMessage is sent privately to the top user on reset
const WinnerDirectMessage = "Congratulations on finishing number one in the gacha point ranking! " +
	"Take a screenshot of this message and contact an admin to claim your prize."

// ArchiveSink stores a ranked snapshot before a reset
type ArchiveSink interface {
	Archive(ctx context.Context, rec models.ArchiveRecord) error
}

// RankingServiceRepository defines the repository methods needed by RankingService
type RankingServiceRepository interface {
	repository.CatalogRepository
	repository.ArchiveRepository
}

// ResetResult describes a completed archive-then-reset
type ResetResult struct {
	Archive        models.ArchiveRecord `json:"archive"`
	Winner         models.RankedEntry   `json:"winner"`
	EntriesReset   int64                `json:"entries_reset"`
	ArchiveError   string               `json:"archive_error,omitempty"`
	WinnerNotified bool                 `json:"winner_notified"`
}

// RankingService implements the admin ranking operations
type RankingService struct {
	log       logger.Logger
	repo      RankingServiceRepository
	ledger    *LedgerService
	board     *LeaderboardService
	publisher LeaderboardPublisher
	archiver  ArchiveSink
	client    surface.Client
	boardSize int
	now       func() time.Time
}

// NewRankingService creates a new RankingService. archiver and client may be nil.
func NewRankingService(
	log logger.Logger,
	repo RankingServiceRepository,
	ledger *LedgerService,
	board *LeaderboardService,
	publisher LeaderboardPublisher,
	archiver ArchiveSink,
	client surface.Client,
	boardSize int,
) *RankingService {
	if boardSize <= 0 {
		boardSize = 20
	}
	return &RankingService{
		log:       log,
		repo:      repo,
		ledger:    ledger,
		board:     board,
		publisher: publisher,
		archiver:  archiver,
		client:    client,
		boardSize: boardSize,
		now:       time.Now,
	}
}

// AdjustPoints adds delta to a user's total and republishes the leaderboard.
// An empty displayName keeps the name already on record.
func (s *RankingService) AdjustPoints(ctx context.Context, userID, displayName string, delta int) (*models.LedgerEntry, error) {
	entry, err := s.ledger.AddPoints(ctx, userID, strings.TrimSpace(displayName), delta)
	if err != nil {
		return nil, err
	}
	s.log.Info("Points adjusted", "user_id", entry.UserID, "delta", delta, "total", entry.Points)

	s.republish(context.WithoutCancel(ctx))
	return entry, nil
}

// Reset zeroes every ledger entry and then, from the pre-reset ranking,
// archives the top of the leaderboard, notifies the winner and republishes.
// Archive and notification failures are logged and never undo the reset.
func (s *RankingService) Reset(ctx context.Context) (*ResetResult, error) {
	ranked, err := s.ledger.SnapshotAndReset(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, ErrNothingToReset
	}

	winner := ranked[0]
	rec := models.ArchiveRecord{
		ID:        uuid.NewString(),
		Title:     fmt.Sprintf("🏆 %s: final ranking", s.gachaTitle(ctx)),
		Entries:   topN(ranked, s.boardSize),
		Winner:    &winner,
		CreatedAt: s.now(),
	}
	result := &ResetResult{Archive: rec, Winner: winner, EntriesReset: int64(len(ranked))}

	bg := context.WithoutCancel(ctx)

	if s.archiver != nil {
		if err := s.archiver.Archive(bg, rec); err != nil {
			s.log.Error("Archive after reset failed", "archive_id", rec.ID, "error", err)
			result.ArchiveError = err.Error()
		}
	}

	if s.client != nil {
		if err := s.client.SendDirect(bg, winner.UserID, surface.Artifact{Content: WinnerDirectMessage}); err != nil {
			s.log.Warn("Failed to notify winner", "user_id", winner.UserID, "error", err)
		} else {
			result.WinnerNotified = true
		}
	}

	s.republish(bg)
	s.log.Info("Ranking reset", "archive_id", rec.ID, "winner", winner.UserID, "entries", len(ranked))
	return result, nil
}

// Republish pushes the current top of the leaderboard unconditionally
func (s *RankingService) Republish(ctx context.Context) error {
	top, err := s.board.TopN(ctx, s.boardSize)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, top)
}

// republish is Republish for callers that already committed and only log
func (s *RankingService) republish(ctx context.Context) {
	if err := s.Republish(ctx); err != nil {
		s.log.Warn("Leaderboard republish failed", "error", err)
	}
}

// ListArchives returns past reset snapshots, newest first
func (s *RankingService) ListArchives(ctx context.Context) ([]models.ArchiveRecord, error) {
	archives, err := s.repo.ListArchives(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return archives, nil
}

func (s *RankingService) gachaTitle(ctx context.Context) string {
	title, err := s.repo.GetCatalogTitle(ctx)
	if err != nil {
		s.log.Warn("Failed to read gacha title", "error", err)
	}
	if strings.TrimSpace(title) == "" {
		return DefaultGachaTitle
	}
	return title
}
