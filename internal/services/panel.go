package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

// DrawButtonID is the custom id the platform adapter maps to a draw request
const DrawButtonID = "gacha10"

// PanelServiceRepository defines the repository methods needed by PanelService
type PanelServiceRepository interface {
	repository.PanelRepository
	repository.CatalogRepository
	repository.SettingsRepository
}

// PanelResult is returned by Install
type PanelResult struct {
	Panel   models.Panel `json:"panel"`
	Created bool         `json:"created"`
}

// PanelService installs draw-trigger panels in surface channels
type PanelService struct {
	log     logger.Logger
	repo    PanelServiceRepository
	client  surface.Client
	baseURL string
	mu      sync.Mutex
}

// NewPanelService creates a new PanelService. baseURL is the public address of
// the live leaderboard page, used when no leaderboard_url setting is stored.
func NewPanelService(log logger.Logger, repo PanelServiceRepository, client surface.Client, baseURL string) *PanelService {
	return &PanelService{log: log, repo: repo, client: client, baseURL: baseURL}
}

// Install posts a draw panel to channelID unless one is already recorded there
func (s *PanelService) Install(ctx context.Context, channelID string) (*PanelResult, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, ErrChannelRequired
	}
	if s.client == nil {
		return nil, errors.Configuration("display surface is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetPanel(ctx, channelID)
	if err == nil {
		return &PanelResult{Panel: *existing}, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Persistence(err)
	}

	title, err := s.repo.GetCatalogTitle(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}

	msg, err := s.client.PostMessage(ctx, channelID, PanelArtifact(title))
	if err != nil {
		s.log.Error("Failed to post draw panel", "channel", channelID, "error", err)
		return nil, errors.Wrap(err, errors.ErrInternal, "could not post to the channel, check its permissions")
	}

	panel := models.Panel{ChannelID: channelID, MessageID: msg.ID, CreatedAt: time.Now()}
	if err := s.repo.SavePanel(ctx, panel); err != nil {
		return nil, storeError(err, "panel already installed")
	}

	s.log.Info("Draw panel installed", "channel", channelID, "message_id", msg.ID)
	return &PanelResult{Panel: panel, Created: true}, nil
}

// ListPanels returns every installed panel
func (s *PanelService) ListPanels(ctx context.Context) ([]models.Panel, error) {
	panels, err := s.repo.ListPanels(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return panels, nil
}

// QRCode returns a PNG QR code linking to the live leaderboard page for an
// installed panel's channel
func (s *PanelService) QRCode(ctx context.Context, channelID string) ([]byte, error) {
	if _, err := s.repo.GetPanel(ctx, channelID); err != nil {
		return nil, storeError(err, fmt.Sprintf("no panel installed in channel %s", channelID))
	}

	baseURL, err := s.leaderboardURL(ctx)
	if err != nil {
		return nil, err
	}
	target := fmt.Sprintf("%s/?channel=%s", strings.TrimSuffix(baseURL, "/"), url.QueryEscape(channelID))
	return qrcode.Encode(target, qrcode.Medium, 256)
}

func (s *PanelService) leaderboardURL(ctx context.Context) (string, error) {
	stored, err := s.repo.GetSetting(ctx, repository.SettingLeaderboardURL)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return "", errors.Persistence(err)
	}
	if stored != "" {
		return stored, nil
	}
	if s.baseURL == "" {
		return "", errors.Configuration("base_url not configured")
	}
	return s.baseURL, nil
}

// PanelArtifact renders the draw panel post
func PanelArtifact(title string) surface.Artifact {
	content := "🎰 Gacha panel"
	if t := strings.TrimSpace(title); t != "" {
		content = "🎰 " + t
	}
	return surface.Artifact{
		Content: content,
		Buttons: []surface.Button{{CustomID: DrawButtonID, Label: "10-pull gacha"}},
	}
}
