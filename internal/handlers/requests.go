package handlers

import "github.com/abrezinsky/gacharank/internal/services"

// DrawRequest is the optional body of a draw. The user comes from the token.
type DrawRequest struct {
	DisplayName string `json:"display_name"`
}

// TitleRequest sets the gacha display title
type TitleRequest struct {
	Title string `json:"title"`
}

// CharacterCreateRequest adds a character to the draw pool
type CharacterCreateRequest struct {
	ID    string        `json:"id"`
	Rank  string        `json:"rank"`
	Name  string        `json:"name"`
	Image string        `json:"image"`
	Rate  services.Rate `json:"rate"`
}

// CharacterRenameRequest renames a character
type CharacterRenameRequest struct {
	Name string `json:"name"`
}

// AdjustPointsRequest adds (or with a negative delta removes) points
type AdjustPointsRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Delta       int    `json:"delta"`
}

// PanelInstallRequest installs a draw panel in a channel
type PanelInstallRequest struct {
	ChannelID string `json:"channel_id"`
}

// TokenIssueRequest mints a bearer token for the platform adapter
type TokenIssueRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Admin  bool   `json:"admin"`
}
