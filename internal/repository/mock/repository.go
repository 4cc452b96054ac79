package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.CommitDrawError = errors.New("database is locked")
//	svc := services.NewDrawService(log, mockRepo, ...)
//	_, err := svc.Draw(ctx, "u-1", "Alice")
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Catalog Errors =====
	GetCatalogTitleError error
	SetCatalogTitleError error
	ListCharactersError  error
	GetCharacterError    error
	CreateCharacterError error
	RenameCharacterError error
	DeleteCharacterError error

	// ===== Cooldown Errors =====
	GetLastDrawError error
	MarkDrawnError   error

	// ===== Ledger Errors =====
	AddPointsError      error
	GetLedgerEntryError error
	ListLedgerError     error
	ResetLedgerError    error

	// ===== Draw Errors =====
	CommitDrawError error
	ListDrawsError  error

	// ===== Archive Errors =====
	SaveArchiveError  error
	ListArchivesError error
	GetArchiveError   error

	// ===== Panel Errors =====
	GetPanelError   error
	SavePanelError  error
	ListPanelsError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error

	// ListLedgerCalls counts ListLedger invocations, including failed ones
	ListLedgerCalls int
	// ListLedgerErrorAfter lets the first N ListLedger calls succeed before
	// ListLedgerError applies. Zero means fail immediately.
	ListLedgerErrorAfter int
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Catalog Methods =====

func (m *Repository) GetCatalogTitle(ctx context.Context) (string, error) {
	if m.GetCatalogTitleError != nil {
		return "", m.GetCatalogTitleError
	}
	return m.FullRepository.GetCatalogTitle(ctx)
}

func (m *Repository) SetCatalogTitle(ctx context.Context, title string) error {
	if m.SetCatalogTitleError != nil {
		return m.SetCatalogTitleError
	}
	return m.FullRepository.SetCatalogTitle(ctx, title)
}

func (m *Repository) ListCharacters(ctx context.Context) ([]models.Character, error) {
	if m.ListCharactersError != nil {
		return nil, m.ListCharactersError
	}
	return m.FullRepository.ListCharacters(ctx)
}

func (m *Repository) GetCharacter(ctx context.Context, id string) (*models.Character, error) {
	if m.GetCharacterError != nil {
		return nil, m.GetCharacterError
	}
	return m.FullRepository.GetCharacter(ctx, id)
}

func (m *Repository) CreateCharacter(ctx context.Context, c models.Character) error {
	if m.CreateCharacterError != nil {
		return m.CreateCharacterError
	}
	return m.FullRepository.CreateCharacter(ctx, c)
}

func (m *Repository) RenameCharacter(ctx context.Context, id, name string) error {
	if m.RenameCharacterError != nil {
		return m.RenameCharacterError
	}
	return m.FullRepository.RenameCharacter(ctx, id, name)
}

func (m *Repository) DeleteCharacter(ctx context.Context, id string) error {
	if m.DeleteCharacterError != nil {
		return m.DeleteCharacterError
	}
	return m.FullRepository.DeleteCharacter(ctx, id)
}

// ===== Cooldown Methods =====

func (m *Repository) GetLastDraw(ctx context.Context, userID string) (time.Time, bool, error) {
	if m.GetLastDrawError != nil {
		return time.Time{}, false, m.GetLastDrawError
	}
	return m.FullRepository.GetLastDraw(ctx, userID)
}

func (m *Repository) MarkDrawn(ctx context.Context, userID string, at time.Time) error {
	if m.MarkDrawnError != nil {
		return m.MarkDrawnError
	}
	return m.FullRepository.MarkDrawn(ctx, userID, at)
}

// ===== Ledger Methods =====

func (m *Repository) AddPoints(ctx context.Context, userID, displayName string, delta int) (int, error) {
	if m.AddPointsError != nil {
		return 0, m.AddPointsError
	}
	return m.FullRepository.AddPoints(ctx, userID, displayName, delta)
}

func (m *Repository) GetLedgerEntry(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	if m.GetLedgerEntryError != nil {
		return nil, m.GetLedgerEntryError
	}
	return m.FullRepository.GetLedgerEntry(ctx, userID)
}

func (m *Repository) ListLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	m.ListLedgerCalls++
	if m.ListLedgerError != nil && m.ListLedgerCalls > m.ListLedgerErrorAfter {
		return nil, m.ListLedgerError
	}
	return m.FullRepository.ListLedger(ctx)
}

func (m *Repository) ResetLedger(ctx context.Context) (int64, error) {
	if m.ResetLedgerError != nil {
		return 0, m.ResetLedgerError
	}
	return m.FullRepository.ResetLedger(ctx)
}

// SnapshotAndResetLedger honors ResetLedgerError, since both zero the ledger
func (m *Repository) SnapshotAndResetLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	if m.ResetLedgerError != nil {
		return nil, m.ResetLedgerError
	}
	return m.FullRepository.SnapshotAndResetLedger(ctx)
}

// ===== Draw Methods =====

func (m *Repository) CommitDraw(ctx context.Context, rec models.DrawRecord) (int, error) {
	if m.CommitDrawError != nil {
		return 0, m.CommitDrawError
	}
	return m.FullRepository.CommitDraw(ctx, rec)
}

func (m *Repository) ListDraws(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error) {
	if m.ListDrawsError != nil {
		return nil, m.ListDrawsError
	}
	return m.FullRepository.ListDraws(ctx, userID, limit)
}

// ===== Archive Methods =====

func (m *Repository) SaveArchive(ctx context.Context, rec models.ArchiveRecord) error {
	if m.SaveArchiveError != nil {
		return m.SaveArchiveError
	}
	return m.FullRepository.SaveArchive(ctx, rec)
}

func (m *Repository) ListArchives(ctx context.Context) ([]models.ArchiveRecord, error) {
	if m.ListArchivesError != nil {
		return nil, m.ListArchivesError
	}
	return m.FullRepository.ListArchives(ctx)
}

func (m *Repository) GetArchive(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	if m.GetArchiveError != nil {
		return nil, m.GetArchiveError
	}
	return m.FullRepository.GetArchive(ctx, id)
}

// ===== Panel Methods =====

func (m *Repository) GetPanel(ctx context.Context, channelID string) (*models.Panel, error) {
	if m.GetPanelError != nil {
		return nil, m.GetPanelError
	}
	return m.FullRepository.GetPanel(ctx, channelID)
}

func (m *Repository) SavePanel(ctx context.Context, p models.Panel) error {
	if m.SavePanelError != nil {
		return m.SavePanelError
	}
	return m.FullRepository.SavePanel(ctx, p)
}

func (m *Repository) ListPanels(ctx context.Context) ([]models.Panel, error) {
	if m.ListPanelsError != nil {
		return nil, m.ListPanelsError
	}
	return m.FullRepository.ListPanels(ctx)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
