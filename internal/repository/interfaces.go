package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/gacharank/internal/models"
)

// CatalogRepository defines draw pool data operations
type CatalogRepository interface {
	GetCatalogTitle(ctx context.Context) (string, error)
	SetCatalogTitle(ctx context.Context, title string) error
	ListCharacters(ctx context.Context) ([]models.Character, error)
	GetCharacter(ctx context.Context, id string) (*models.Character, error)
	CreateCharacter(ctx context.Context, c models.Character) error
	RenameCharacter(ctx context.Context, id, name string) error
	DeleteCharacter(ctx context.Context, id string) error
}

// CooldownRepository defines per-user last draw timestamps
type CooldownRepository interface {
	GetLastDraw(ctx context.Context, userID string) (time.Time, bool, error)
	MarkDrawn(ctx context.Context, userID string, at time.Time) error
}

// LedgerRepository defines cumulative point operations
type LedgerRepository interface {
	AddPoints(ctx context.Context, userID, displayName string, delta int) (int, error)
	GetLedgerEntry(ctx context.Context, userID string) (*models.LedgerEntry, error)
	ListLedger(ctx context.Context) ([]models.LedgerEntry, error)
	ResetLedger(ctx context.Context) (int64, error)
	SnapshotAndResetLedger(ctx context.Context) ([]models.LedgerEntry, error)
}

// DrawRepository defines the draw log
type DrawRepository interface {
	CommitDraw(ctx context.Context, rec models.DrawRecord) (int, error)
	ListDraws(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error)
}

// ArchiveRepository defines leaderboard snapshot storage
type ArchiveRepository interface {
	SaveArchive(ctx context.Context, rec models.ArchiveRecord) error
	ListArchives(ctx context.Context) ([]models.ArchiveRecord, error)
	GetArchive(ctx context.Context, id string) (*models.ArchiveRecord, error)
}

// PanelRepository defines installed draw panels
type PanelRepository interface {
	GetPanel(ctx context.Context, channelID string) (*models.Panel, error)
	SavePanel(ctx context.Context, p models.Panel) error
	ListPanels(ctx context.Context) ([]models.Panel, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	CatalogRepository
	CooldownRepository
	LedgerRepository
	DrawRepository
	ArchiveRepository
	PanelRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
