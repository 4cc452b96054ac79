package services

import (
	"context"
	"io"
	"time"

	"github.com/abrezinsky/gacharank/internal/models"
)

// CatalogServicer defines the interface for draw pool administration
type CatalogServicer interface {
	GetCatalog(ctx context.Context) (*models.Catalog, error)
	SetTitle(ctx context.Context, title string) error
	AddCharacter(ctx context.Context, in CharacterInput) (*models.Character, error)
	RenameCharacter(ctx context.Context, id, name string) error
	RemoveCharacter(ctx context.Context, id string) error
	ListCharacters(ctx context.Context) (string, error)
	ImportYAML(ctx context.Context, r io.Reader) (*ImportResult, error)
}

// CooldownServicer defines the interface for per-user draw cooldowns
type CooldownServicer interface {
	Remaining(ctx context.Context, userID string) (time.Duration, error)
	MarkDrawn(ctx context.Context, userID string) error
	Window() time.Duration
}

// LeaderboardServicer defines the interface for ranked views of the ledger
type LeaderboardServicer interface {
	RankedView(ctx context.Context) ([]models.RankedEntry, error)
	RankOf(ctx context.Context, userID string) (int, error)
	TopN(ctx context.Context, n int) ([]models.RankedEntry, error)
}

// DrawServicer defines the interface for user draws
type DrawServicer interface {
	Draw(ctx context.Context, userID, displayName string) (*models.DrawOutcome, error)
	History(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error)
}

// RankingServicer defines the interface for admin ranking operations
type RankingServicer interface {
	AdjustPoints(ctx context.Context, userID, displayName string, delta int) (*models.LedgerEntry, error)
	Reset(ctx context.Context) (*ResetResult, error)
	Republish(ctx context.Context) error
	ListArchives(ctx context.Context) ([]models.ArchiveRecord, error)
}

// PanelServicer defines the interface for draw panel installation
type PanelServicer interface {
	Install(ctx context.Context, channelID string) (*PanelResult, error)
	QRCode(ctx context.Context, channelID string) ([]byte, error)
	ListPanels(ctx context.Context) ([]models.Panel, error)
}

// LeaderboardPublisher pushes leaderboard state to the display surface
type LeaderboardPublisher interface {
	PublishIfChanged(ctx context.Context, before, after []models.RankedEntry) (bool, error)
	Publish(ctx context.Context, entries []models.RankedEntry) error
}

// Broadcaster defines the interface for broadcasting messages to live viewers
type Broadcaster interface {
	BroadcastLeaderboard(entries []models.RankedEntry)
}

// Ensure concrete types implement interfaces
var (
	_ CatalogServicer      = (*CatalogService)(nil)
	_ CooldownServicer     = (*CooldownService)(nil)
	_ LeaderboardServicer  = (*LeaderboardService)(nil)
	_ DrawServicer         = (*DrawService)(nil)
	_ RankingServicer      = (*RankingService)(nil)
	_ PanelServicer        = (*PanelService)(nil)
	_ LeaderboardPublisher = (*Publisher)(nil)
)
