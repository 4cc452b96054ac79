package models

import (
	"math"
	"time"

	"github.com/abrezinsky/gacharank/internal/gacha"
)

// Character is a single entry in the draw pool
type Character struct {
	ID       string     `json:"id" yaml:"id"`
	Rank     gacha.Tier `json:"rank" yaml:"rank"`
	Name     string     `json:"name" yaml:"name"`
	Image    string     `json:"image" yaml:"image"`
	Rate     float64    `json:"rate" yaml:"rate"`
	Position int        `json:"position" yaml:"-"`
}

// Weight returns the draw weight. Negative or non-finite rates count as 0.
func (c Character) Weight() float64 {
	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate < 0 {
		return 0
	}
	return c.Rate
}

// Catalog is the display title plus the ordered draw pool
type Catalog struct {
	Title      string      `json:"title"`
	Characters []Character `json:"characters"`
}

// LedgerEntry is a user's cumulative points and latest display name
type LedgerEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// RankedEntry is one row of the leaderboard. It is comparable so two
// leaderboard slices can be checked for equality by value.
type RankedEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// DrawStatus describes how a draw request ended
type DrawStatus string

const (
	DrawStatusOK       DrawStatus = "ok"
	DrawStatusCooldown DrawStatus = "cooldown"
)

// DrawItem is one sampled character in a batch result
type DrawItem struct {
	CharacterID string `json:"character_id"`
	Rank        string `json:"rank"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Points      int    `json:"points"`
}

// DrawOutcome is either a cooldown rejection or a committed batch
type DrawOutcome struct {
	Status        DrawStatus    `json:"status"`
	DrawID        string        `json:"draw_id,omitempty"`
	Items         []DrawItem    `json:"items,omitempty"`
	PointsAwarded int           `json:"points_awarded"`
	TotalPoints   int           `json:"total_points"`
	Rank          int           `json:"rank,omitempty"`
	Remaining     time.Duration `json:"-"`
}

// RemainingMinutes is the cooldown remainder rounded up to whole minutes
func (o DrawOutcome) RemainingMinutes() int {
	return int(math.Ceil(o.Remaining.Minutes()))
}

// RemainingSeconds is the cooldown remainder rounded up to whole seconds
func (o DrawOutcome) RemainingSeconds() int {
	return int(math.Ceil(o.Remaining.Seconds()))
}

// DrawRecord is the persisted log row for a committed draw
type DrawRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Points      int       `json:"points"`
	Characters  []string  `json:"characters"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArchiveRecord is an immutable snapshot of the leaderboard taken before a reset
type ArchiveRecord struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Entries   []RankedEntry `json:"entries"`
	Winner    *RankedEntry  `json:"winner,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Panel records a draw-trigger control posted to a channel
type Panel struct {
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
