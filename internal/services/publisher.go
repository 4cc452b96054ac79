package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

const (
	leaderboardColor = 0xffd700
	archiveColor     = 0x00ae86
)

// PublisherConfig names the surface channels the publisher writes to.
// Empty channels disable the corresponding output.
type PublisherConfig struct {
	RankChannelID    string
	ArchiveChannelID string
	BoardSize        int
}

// Publisher keeps the rank channel showing exactly one current leaderboard
// artifact and posts archive snapshots to the archive channel.
type Publisher struct {
	log         logger.Logger
	client      surface.Client
	settings    repository.SettingsRepository
	cfg         PublisherConfig
	broadcaster Broadcaster
	source      BoardReader
	now         func() time.Time
	mu          sync.Mutex
}

// NewPublisher creates a new Publisher. client may be nil when no surface is configured.
func NewPublisher(log logger.Logger, client surface.Client, settings repository.SettingsRepository, cfg PublisherConfig) *Publisher {
	if cfg.BoardSize <= 0 {
		cfg.BoardSize = 20
	}
	return &Publisher{
		log:      log,
		client:   client,
		settings: settings,
		cfg:      cfg,
		now:      time.Now,
	}
}

// BoardReader supplies the current top of the leaderboard
type BoardReader interface {
	TopN(ctx context.Context, n int) ([]models.RankedEntry, error)
}

// SetSource makes Publish re-read the board before writing, so the last
// publish to finish always shows the latest state
func (p *Publisher) SetSource(source BoardReader) {
	p.source = source
}

// SetBroadcaster sets the broadcaster for live leaderboard viewers
func (p *Publisher) SetBroadcaster(b Broadcaster) {
	p.broadcaster = b
}

// PublishIfChanged publishes after only when it differs from before.
// Identical slices perform no I/O.
func (p *Publisher) PublishIfChanged(ctx context.Context, before, after []models.RankedEntry) (bool, error) {
	if slices.Equal(before, after) {
		return false, nil
	}
	return true, p.Publish(ctx, after)
}

// Publish pushes entries to live viewers and replaces the rank channel content.
// With a source set, entries is only used when the board cannot be read.
func (p *Publisher) Publish(ctx context.Context, entries []models.RankedEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil {
		current, err := p.source.TopN(ctx, p.cfg.BoardSize)
		if err != nil {
			p.log.Warn("Failed to re-read leaderboard, publishing caller snapshot", "error", err)
		} else {
			entries = current
		}
	}

	if p.broadcaster != nil {
		p.broadcaster.BroadcastLeaderboard(entries)
	}
	if p.client == nil || p.cfg.RankChannelID == "" {
		return nil
	}

	artifact := p.LeaderboardArtifact(entries)
	if err := p.replace(ctx, p.cfg.RankChannelID, artifact); err != nil {
		p.log.Error("Failed to publish leaderboard", "channel", p.cfg.RankChannelID, "error", err)
		return err
	}
	p.log.Debug("Leaderboard published", "channel", p.cfg.RankChannelID, "entries", len(entries))
	return nil
}

// replace makes artifact the only message in the channel. When the channel
// already holds just the artifact we posted last time it is edited in place.
func (p *Publisher) replace(ctx context.Context, channelID string, artifact surface.Artifact) error {
	msgs, err := p.client.ListMessages(ctx, channelID, surface.MaxListLimit)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	stored, err := p.settings.GetSetting(ctx, repository.SettingRankMessageID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		p.log.Warn("Failed to read stored leaderboard message id", "error", err)
	}

	if len(msgs) == 1 && stored != "" && msgs[0].ID == stored {
		_, err := p.client.EditMessage(ctx, channelID, stored, artifact)
		if err == nil {
			return nil
		}
		p.log.Warn("Edit in place failed, reposting leaderboard", "channel", channelID, "error", err)
	}

	for len(msgs) > 0 {
		p.clear(ctx, channelID, msgs)
		// A full page may mean older messages remain
		if len(msgs) < surface.MaxListLimit {
			break
		}
		next, err := p.client.ListMessages(ctx, channelID, surface.MaxListLimit)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		if sameIDs(msgs, next) {
			break
		}
		msgs = next
	}

	msg, err := p.client.PostMessage(ctx, channelID, artifact)
	if err != nil {
		return fmt.Errorf("post leaderboard: %w", err)
	}
	if err := p.settings.SetSetting(ctx, repository.SettingRankMessageID, msg.ID); err != nil {
		p.log.Warn("Failed to store leaderboard message id", "message_id", msg.ID, "error", err)
	}
	return nil
}

// clear deletes msgs, falling back to one-by-one deletes when a bulk delete
// is refused. Individual failures are ignored.
func (p *Publisher) clear(ctx context.Context, channelID string, msgs []surface.Message) {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}

	if len(ids) >= 2 {
		err := p.client.BulkDelete(ctx, channelID, ids)
		if err == nil {
			return
		}
		p.log.Debug("Bulk delete refused, deleting individually", "channel", channelID, "count", len(ids), "error", err)
	}

	for _, id := range ids {
		if err := p.client.DeleteMessage(ctx, channelID, id); err != nil {
			p.log.Debug("Ignoring delete failure", "channel", channelID, "message_id", id, "error", err)
		}
	}
}

func sameIDs(a, b []surface.Message) bool {
	return slices.EqualFunc(a, b, func(x, y surface.Message) bool { return x.ID == y.ID })
}

// LeaderboardArtifact renders entries as the rank channel post
func (p *Publisher) LeaderboardArtifact(entries []models.RankedEntry) surface.Artifact {
	now := p.now()
	return surface.Artifact{
		Title:     fmt.Sprintf("🏆 Gacha Ranking TOP%d", p.cfg.BoardSize),
		Color:     leaderboardColor,
		Timestamp: &now,
		Fields:    rankFields(entries),
	}
}

func rankFields(entries []models.RankedEntry) []surface.Field {
	fields := make([]surface.Field, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, surface.Field{
			Name:  fmt.Sprintf("%d. %s", e.Rank, e.DisplayName),
			Value: fmt.Sprintf("%dpt", e.Points),
		})
	}
	return fields
}

// Name implements archive.Sink
func (p *Publisher) Name() string { return "surface" }

// Archive implements archive.Sink. It posts the snapshot and a winner
// announcement to the archive channel.
func (p *Publisher) Archive(ctx context.Context, rec models.ArchiveRecord) error {
	if p.client == nil || p.cfg.ArchiveChannelID == "" {
		return nil
	}

	created := rec.CreatedAt
	_, err := p.client.PostMessage(ctx, p.cfg.ArchiveChannelID, surface.Artifact{
		Title:     rec.Title,
		Color:     archiveColor,
		Timestamp: &created,
		Fields:    rankFields(rec.Entries),
	})
	if err != nil {
		return fmt.Errorf("post archive: %w", err)
	}

	if rec.Winner == nil {
		return nil
	}
	_, err = p.client.PostMessage(ctx, p.cfg.ArchiveChannelID, surface.Artifact{
		Content: WinnerAnnouncement(rec.Winner.UserID),
	})
	if err != nil {
		return fmt.Errorf("post winner announcement: %w", err)
	}
	return nil
}

// WinnerAnnouncement is the archive channel message naming the top user
func WinnerAnnouncement(userID string) string {
	return fmt.Sprintf("🎉 **This round's number one is <@%s>. Congratulations!!**", userID)
}
