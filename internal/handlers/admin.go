package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/gacharank/internal/services"
)

// maxImportBytes bounds a catalog import upload
const maxImportBytes = 1 << 20

// ==================== Admin Pages ====================

func (h *Handlers) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	data := AdminPageData{
		Title:     "Gacha Admin",
		PageTitle: "Dashboard",
		ActiveNav: "dashboard",
	}
	h.templates.AdminDashboard.ExecuteTemplate(w, "admin", data)
}

func (h *Handlers) handleAdminCatalog(w http.ResponseWriter, r *http.Request) {
	data := AdminPageData{
		Title:     "Draw Pool",
		PageTitle: "Draw Pool",
		ActiveNav: "catalog",
	}
	h.templates.AdminCatalog.ExecuteTemplate(w, "admin", data)
}

func (h *Handlers) handleAdminRanking(w http.ResponseWriter, r *http.Request) {
	data := AdminPageData{
		Title:     "Ranking",
		PageTitle: "Ranking",
		ActiveNav: "ranking",
	}
	h.templates.AdminRanking.ExecuteTemplate(w, "admin", data)
}

// ==================== Catalog ====================

func (h *Handlers) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Catalog.GetCatalog(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, catalog)
}

func (h *Handlers) handleGetCatalogListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Catalog.ListCharacters(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, CatalogListingResponse{Listing: listing})
}

func (h *Handlers) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.SetTitle(r.Context(), req.Title); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Title updated")
}

// handleImportCatalog accepts a YAML catalog document as the request body
func (h *Handlers) handleImportCatalog(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := h.Catalog.ImportYAML(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleAddCharacter(w http.ResponseWriter, r *http.Request) {
	var req CharacterCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	character, err := h.Catalog.AddCharacter(r.Context(), services.CharacterInput{
		ID:    req.ID,
		Rank:  req.Rank,
		Name:  req.Name,
		Image: req.Image,
		Rate:  req.Rate,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, character)
}

func (h *Handlers) handleRenameCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CharacterRenameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.RenameCharacter(r.Context(), id, req.Name); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Character renamed")
}

func (h *Handlers) handleRemoveCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Catalog.RemoveCharacter(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Ranking ====================

func (h *Handlers) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req AdjustPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.Ranking.AdjustPoints(r.Context(), req.UserID, req.DisplayName, req.Delta)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entry)
}

func (h *Handlers) handleResetRanking(w http.ResponseWriter, r *http.Request) {
	result, err := h.Ranking.Reset(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleRepublish(w http.ResponseWriter, r *http.Request) {
	if err := h.Ranking.Republish(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Leaderboard republished")
}

func (h *Handlers) handleGetArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := h.Ranking.ListArchives(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	summaries := make([]ArchiveSummary, 0, len(archives))
	for _, a := range archives {
		summaries = append(summaries, ArchiveSummary{
			ID:        a.ID,
			Title:     a.Title,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
			Winner:    a.Winner,
			Entries:   len(a.Entries),
		})
	}
	respondOK(w, summaries)
}

// ==================== Panels ====================

func (h *Handlers) handleGetPanels(w http.ResponseWriter, r *http.Request) {
	panels, err := h.Panels.ListPanels(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, panels)
}

// handleInstallPanel answers 201 for a new panel and 200 when the channel
// already had one
func (h *Handlers) handleInstallPanel(w http.ResponseWriter, r *http.Request) {
	var req PanelInstallRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Panels.Install(r.Context(), req.ChannelID)
	if err != nil {
		respondError(w, err)
		return
	}
	if result.Created {
		respondCreated(w, result)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleGetPanelQR(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	png, err := h.Panels.QRCode(r.Context(), channelID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
