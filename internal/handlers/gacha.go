package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/models"
)

// ==================== Live Leaderboard ====================

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.templates.Index.Execute(w, map[string]int{"BoardSize": h.BoardSize})
}

func (h *Handlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.BoardSize)
	if err != nil {
		respondError(w, err)
		return
	}

	entries, err := h.Leaderboard.TopN(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if entries == nil {
		entries = []models.RankedEntry{}
	}
	respondOK(w, LeaderboardResponse{Entries: entries})
}

func (h *Handlers) handleGetRank(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	rank, err := h.Leaderboard.RankOf(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, RankResponse{UserID: userID, Rank: rank})
}

// ==================== Draws ====================

// handleDraw runs a batch draw for the token's user. A cooldown rejection is
// answered with 429 and the remaining wait.
func (h *Handlers) handleDraw(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}

	var req DrawRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}
	name := req.DisplayName
	if name == "" {
		name = claims.Name
	}

	outcome, err := h.Draw.Draw(r.Context(), claims.UserID(), name)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := newDrawResponse(outcome)
	if outcome.Status == models.DrawStatusCooldown {
		w.Header().Set("Retry-After", strconv.Itoa(resp.RemainingSeconds))
		respondJSON(w, http.StatusTooManyRequests, resp)
		return
	}
	respondOK(w, resp)
}

func (h *Handlers) handleDrawHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}
	limit, err := parseLimit(r, 0)
	if err != nil {
		respondError(w, err)
		return
	}

	history, err := h.Draw.History(r.Context(), claims.UserID(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if history == nil {
		history = []models.DrawRecord{}
	}
	respondOK(w, history)
}

func (h *Handlers) handleGetCooldown(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}

	remaining, err := h.Cooldown.Remaining(r.Context(), claims.UserID())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, CooldownResponse{
		UserID:           claims.UserID(),
		Ready:            remaining <= 0,
		RemainingSeconds: int(math.Ceil(remaining.Seconds())),
		WindowSeconds:    int(h.Cooldown.Window().Seconds()),
	})
}
