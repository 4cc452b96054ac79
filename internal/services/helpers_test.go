package services_test

import (
	"testing"
	"time"

	"github.com/abrezinsky/gacharank/internal/archive"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/internal/services"
	"github.com/abrezinsky/gacharank/internal/testutil"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

const (
	rankChannel    = "rank-ch"
	archiveChannel = "archive-ch"
)

// fakeClock is a settable clock shared by the services under test
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// engine bundles every service wired the way the app wires them
type engine struct {
	repo      repository.FullRepository
	client    *surface.MockClient
	clock     *fakeClock
	catalog   *services.CatalogService
	cooldown  *services.CooldownService
	ledger    *services.LedgerService
	board     *services.LeaderboardService
	publisher *services.Publisher
	draw      *services.DrawService
	ranking   *services.RankingService
	panels    *services.PanelService
}

func testLogger() logger.Logger {
	return logger.New()
}

func setupEngine(t *testing.T) *engine {
	t.Helper()
	return setupEngineWithRepo(t, testutil.NewTestRepository(t))
}

func setupEngineWithRepo(t *testing.T, repo repository.FullRepository) *engine {
	t.Helper()
	return newEngine(t, repo, surface.NewMockClient())
}

func newEngine(t *testing.T, repo repository.FullRepository, client *surface.MockClient) *engine {
	t.Helper()
	log := testLogger()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	e := &engine{repo: repo, client: client, clock: clock}
	e.catalog = services.NewCatalogService(log, repo)
	e.cooldown = services.NewCooldownService(repo, time.Hour, clock.Now)
	e.ledger = services.NewLedgerService(log, repo)
	e.board = services.NewLeaderboardService(repo)
	e.publisher = services.NewPublisher(log, client, repo, services.PublisherConfig{
		RankChannelID:    rankChannel,
		ArchiveChannelID: archiveChannel,
		BoardSize:        20,
	})
	e.publisher.SetSource(e.board)
	e.draw = services.NewDrawService(log, repo, e.cooldown, e.ledger, e.board, e.publisher, client,
		services.DrawConfig{BatchSize: 10, BoardSize: 20})
	sinks := archive.NewMulti(log, archive.NewRepositorySink(repo), e.publisher)
	e.ranking = services.NewRankingService(log, repo, e.ledger, e.board, e.publisher, sinks, client, 20)
	e.panels = services.NewPanelService(log, repo, client, "http://gacha.local")
	return e
}

// recordingBroadcaster captures every leaderboard pushed to live viewers
type recordingBroadcaster struct {
	calls [][]string
}

func (b *recordingBroadcaster) BroadcastLeaderboard(entries []models.RankedEntry) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	b.calls = append(b.calls, ids)
}
