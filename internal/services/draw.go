package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

// DefaultBatchSize is the number of samples in one draw
const DefaultBatchSize = 10

// DrawConfig sizes a draw and the leaderboard slice it is compared against
type DrawConfig struct {
	BatchSize int
	BoardSize int
}

// DrawService runs a user's batch draw end to end: cooldown gate, weighted
// sampling, atomic commit, rank lookup and the follow-up publish.
type DrawService struct {
	log       logger.Logger
	catalog   repository.CatalogRepository
	cooldown  *CooldownService
	ledger    *LedgerService
	board     *LeaderboardService
	publisher LeaderboardPublisher
	client    surface.Client
	cfg       DrawConfig

	// mu spans the cooldown check through the commit so one user cannot
	// slip a second draw between them
	mu    sync.Mutex
	rng   gacha.RandomSource
	newID func() string
}

// NewDrawService creates a new DrawService. client may be nil, in which case
// results are only returned to the caller.
func NewDrawService(
	log logger.Logger,
	catalog repository.CatalogRepository,
	cooldown *CooldownService,
	ledger *LedgerService,
	board *LeaderboardService,
	publisher LeaderboardPublisher,
	client surface.Client,
	cfg DrawConfig,
) *DrawService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BoardSize <= 0 {
		cfg.BoardSize = 20
	}
	return &DrawService{
		log:       log,
		catalog:   catalog,
		cooldown:  cooldown,
		ledger:    ledger,
		board:     board,
		publisher: publisher,
		client:    client,
		cfg:       cfg,
		rng:       gacha.DefaultRNG(),
		newID:     uuid.NewString,
	}
}

// SetRandomSource replaces the sampler's random source
func (s *DrawService) SetRandomSource(rng gacha.RandomSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// Draw performs one batch draw for the user. A user still cooling down gets
// a cooldown outcome and nothing is mutated.
func (s *DrawService) Draw(ctx context.Context, userID, displayName string) (*models.DrawOutcome, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = userID
	}

	outcome, before, after, err := s.commit(ctx, userID, displayName)
	if err != nil {
		return nil, err
	}

	// Side effects run detached from the request so a client hang-up
	// cannot cut a publish short.
	bg := context.WithoutCancel(ctx)

	if outcome.Status == models.DrawStatusCooldown {
		s.notify(bg, userID, surface.Artifact{
			Content: fmt.Sprintf("⏳ You can draw again in %d min", outcome.RemainingMinutes()),
		})
		return outcome, nil
	}

	if after != nil {
		if _, err := s.publisher.PublishIfChanged(bg, before, after); err != nil {
			s.log.Warn("Leaderboard publish after draw failed", "user_id", userID, "error", err)
		}
	}
	s.notify(bg, userID, DrawResultArtifact(outcome))

	return outcome, nil
}

// commit holds mu for the check-then-commit sequence. after is nil when the
// post-commit leaderboard could not be read.
func (s *DrawService) commit(ctx context.Context, userID, displayName string) (*models.DrawOutcome, []models.RankedEntry, []models.RankedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, err := s.cooldown.Remaining(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if remaining > 0 {
		return &models.DrawOutcome{Status: models.DrawStatusCooldown, Remaining: remaining}, nil, nil, nil
	}

	before, err := s.board.TopN(ctx, s.cfg.BoardSize)
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := s.catalog.ListCharacters(ctx)
	if err != nil {
		return nil, nil, nil, storeError(err, "failed to load catalog")
	}
	drawn, err := gacha.DrawBatch(pool, s.cfg.BatchSize, s.rng)
	if stderrors.Is(err, gacha.ErrNoWeight) {
		return nil, nil, nil, ErrNotConfigured
	}
	if err != nil {
		return nil, nil, nil, err
	}

	items := make([]models.DrawItem, len(drawn))
	ids := make([]string, len(drawn))
	points := 0
	for i, c := range drawn {
		pt := c.Rank.Points()
		points += pt
		ids[i] = c.ID
		items[i] = models.DrawItem{
			CharacterID: c.ID,
			Rank:        c.Rank.Label(),
			Name:        c.Name,
			Image:       c.Image,
			Points:      pt,
		}
	}

	rec := models.DrawRecord{
		ID:          s.newID(),
		UserID:      userID,
		DisplayName: displayName,
		Points:      points,
		Characters:  ids,
		CreatedAt:   s.cooldown.now(),
	}
	total, err := s.ledger.CommitDraw(ctx, rec)
	if err != nil {
		return nil, nil, nil, err
	}

	outcome := &models.DrawOutcome{
		Status:        models.DrawStatusOK,
		DrawID:        rec.ID,
		Items:         items,
		PointsAwarded: points,
		TotalPoints:   total,
	}

	// The draw is committed from here on; read failures only cost the
	// rank display and the publish.
	rank, err := s.board.RankOf(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to compute rank after draw", "user_id", userID, "draw_id", rec.ID, "error", err)
	}
	outcome.Rank = rank

	after, err := s.board.TopN(ctx, s.cfg.BoardSize)
	if err != nil {
		s.log.Warn("Failed to read leaderboard after draw", "user_id", userID, "draw_id", rec.ID, "error", err)
		after = nil
	}

	s.log.Info("Draw committed", "user_id", userID, "draw_id", rec.ID, "points", points, "total", total, "rank", rank)
	return outcome, before, after, nil
}

// History returns the user's recent draws, newest first
func (s *DrawService) History(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledger.History(ctx, userID, limit)
}

// notify sends a private message. Failures are logged and dropped.
func (s *DrawService) notify(ctx context.Context, userID string, a surface.Artifact) {
	if s.client == nil {
		return
	}
	if err := s.client.SendDirect(ctx, userID, a); err != nil {
		s.log.Warn("Failed to send direct message", "user_id", userID, "error", err)
	}
}

// DrawResultArtifact renders a committed draw for the user
func DrawResultArtifact(o *models.DrawOutcome) surface.Artifact {
	fields := make([]surface.Field, 0, len(o.Items)+3)
	for i, item := range o.Items {
		value := fmt.Sprintf("Points: %dpt", item.Points)
		if item.Image != "" {
			value += fmt.Sprintf("\n[Character image](%s)", item.Image)
		}
		fields = append(fields, surface.Field{
			Name:  fmt.Sprintf("%d. [%s] %s", i+1, item.Rank, item.Name),
			Value: value,
		})
	}

	rank := "-"
	if o.Rank > 0 {
		rank = fmt.Sprintf("#%d", o.Rank)
	}
	fields = append(fields,
		surface.Field{Name: "━━━━━━━━━━━━━━━", Value: "\u200b"},
		surface.Field{Name: "💰 Points earned", Value: fmt.Sprintf("%dpt", o.PointsAwarded), Inline: true},
		surface.Field{Name: "👑 Current rank", Value: rank, Inline: true},
	)

	return surface.Artifact{
		Title:  fmt.Sprintf("🎰 %d-pull result", len(o.Items)),
		Color:  leaderboardColor,
		Fields: fields,
	}
}
