package handlers

import (
	"github.com/abrezinsky/gacharank/internal/models"
)

// DrawResponse is the JSON response for a draw. Remaining fields are only
// set for a cooldown rejection.
type DrawResponse struct {
	Status           models.DrawStatus `json:"status"`
	DrawID           string            `json:"draw_id,omitempty"`
	Items            []models.DrawItem `json:"items,omitempty"`
	PointsAwarded    int               `json:"points_awarded"`
	TotalPoints      int               `json:"total_points"`
	Rank             int               `json:"rank,omitempty"`
	RemainingSeconds int               `json:"remaining_seconds,omitempty"`
	RemainingMinutes int               `json:"remaining_minutes,omitempty"`
}

func newDrawResponse(o *models.DrawOutcome) DrawResponse {
	resp := DrawResponse{
		Status:        o.Status,
		DrawID:        o.DrawID,
		Items:         o.Items,
		PointsAwarded: o.PointsAwarded,
		TotalPoints:   o.TotalPoints,
		Rank:          o.Rank,
	}
	if o.Status == models.DrawStatusCooldown {
		resp.RemainingSeconds = o.RemainingSeconds()
		resp.RemainingMinutes = o.RemainingMinutes()
	}
	return resp
}

// CooldownResponse reports how long the caller must wait before drawing
type CooldownResponse struct {
	UserID           string `json:"user_id"`
	Ready            bool   `json:"ready"`
	RemainingSeconds int    `json:"remaining_seconds"`
	WindowSeconds    int    `json:"window_seconds"`
}

// LeaderboardResponse is the top of the leaderboard
type LeaderboardResponse struct {
	Entries []models.RankedEntry `json:"entries"`
}

// RankResponse is a single user's standing
type RankResponse struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
}

// CatalogListingResponse is the human-readable pool listing
type CatalogListingResponse struct {
	Listing string `json:"listing"`
}

// ArchiveSummary is one row of the archive listing
type ArchiveSummary struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	CreatedAt string              `json:"created_at"`
	Winner    *models.RankedEntry `json:"winner,omitempty"`
	Entries   int                 `json:"entries"`
}

// TokenResponse carries a freshly issued bearer token
type TokenResponse struct {
	Token string `json:"token"`
}
