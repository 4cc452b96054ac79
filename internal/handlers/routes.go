package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Heartbeat("/healthz"))

	// Static files (served from embedded filesystem)
	if h.staticServer != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
	}

	// Live leaderboard page
	r.Get("/", h.handleIndex)

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Leaderboard API (public, read-only)
	r.Get("/api/leaderboard", h.handleGetLeaderboard)
	r.Get("/api/rank/{userID}", h.handleGetRank)

	// Draw API (platform adapter, bearer token)
	if h.Tokens != nil {
		r.Group(func(r chi.Router) {
			r.Use(h.Tokens.RequireToken)
			r.Post("/api/draw", h.handleDraw)
			r.Get("/api/draw/history", h.handleDrawHistory)
			r.Get("/api/cooldown", h.handleGetCooldown)
		})
	}

	// Auth routes (public)
	r.Get("/admin/login", h.handleLoginPage)
	r.Post("/admin/login", h.handleLogin)
	r.Post("/admin/logout", h.handleLogout)

	// Admin pages (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Get("/admin", h.handleAdminDashboard)
		r.Get("/admin/catalog", h.handleAdminCatalog)
		r.Get("/admin/ranking", h.handleAdminRanking)
	})

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Catalog
		r.Get("/api/admin/catalog", h.handleGetCatalog)
		r.Get("/api/admin/catalog/listing", h.handleGetCatalogListing)
		r.Put("/api/admin/catalog/title", h.handleSetTitle)
		r.Post("/api/admin/catalog/import", h.handleImportCatalog)
		r.Post("/api/admin/characters", h.handleAddCharacter)
		r.Put("/api/admin/characters/{id}", h.handleRenameCharacter)
		r.Delete("/api/admin/characters/{id}", h.handleRemoveCharacter)

		// Ranking
		r.Post("/api/admin/points", h.handleAdjustPoints)
		r.Post("/api/admin/ranking/reset", h.handleResetRanking)
		r.Post("/api/admin/ranking/republish", h.handleRepublish)
		r.Get("/api/admin/archives", h.handleGetArchives)

		// Panels
		r.Get("/api/admin/panels", h.handleGetPanels)
		r.Post("/api/admin/panels", h.handleInstallPanel)
		r.Get("/api/admin/panels/{channelID}/qr", h.handleGetPanelQR)

		// Adapter tokens
		r.Post("/api/admin/tokens", h.handleIssueToken)
	})

	return r
}
