package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/services"
	"github.com/abrezinsky/gacharank/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// AdminPageData holds the data passed to admin templates
type AdminPageData struct {
	Title     string
	PageTitle string
	ActiveNav string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index          *template.Template
	AdminLogin     *template.Template
	AdminDashboard *template.Template
	AdminCatalog   *template.Template
	AdminRanking   *template.Template
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Catalog      services.CatalogServicer
	Draw         services.DrawServicer
	Leaderboard  services.LeaderboardServicer
	Ranking      services.RankingServicer
	Panels       services.PanelServicer
	Cooldown     services.CooldownServicer
	Auth         *auth.Auth
	Tokens       *auth.TokenIssuer
	Hub          *websocket.Hub
	Log          HTTPLogger
	BoardSize    int
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	catalog services.CatalogServicer,
	draw services.DrawServicer,
	leaderboard services.LeaderboardServicer,
	ranking services.RankingServicer,
	panels services.PanelServicer,
	cooldown services.CooldownServicer,
	templatesFS fs.FS,
	staticServer http.Handler,
	adminAuth *auth.Auth,
	tokens *auth.TokenIssuer,
	hub *websocket.Hub,
	log HTTPLogger,
	boardSize int,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	if boardSize <= 0 {
		boardSize = 20
	}

	return &Handlers{
		Catalog:      catalog,
		Draw:         draw,
		Leaderboard:  leaderboard,
		Ranking:      ranking,
		Panels:       panels,
		Cooldown:     cooldown,
		Auth:         adminAuth,
		Tokens:       tokens,
		Hub:          hub,
		Log:          log,
		BoardSize:    boardSize,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// TestPassword and TestTokenSecret are the credentials NewForTesting installs
const (
	TestPassword    = "test-password"
	TestTokenSecret = "test-token-secret"
)

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(
	catalog services.CatalogServicer,
	draw services.DrawServicer,
	leaderboard services.LeaderboardServicer,
	ranking services.RankingServicer,
	panels services.PanelServicer,
	cooldown services.CooldownServicer,
) *Handlers {
	testAuth, err := auth.New(TestPassword)
	if err != nil {
		panic(err)
	}
	tokens, err := auth.NewTokenIssuer(TestTokenSecret, 0)
	if err != nil {
		panic(err)
	}
	testAuth.SetTokenIssuer(tokens)

	return &Handlers{
		Catalog:     catalog,
		Draw:        draw,
		Leaderboard: leaderboard,
		Ranking:     ranking,
		Panels:      panels,
		Cooldown:    cooldown,
		Auth:        testAuth,
		Tokens:      tokens,
		Log:         NoopHTTPLogger{},
		BoardSize:   20,
		// templates left nil - API endpoints don't use templates
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}
	if t.AdminDashboard, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/dashboard.html"); err != nil {
		return nil, fmt.Errorf("admin dashboard template: %w", err)
	}
	if t.AdminCatalog, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/catalog.html"); err != nil {
		return nil, fmt.Errorf("admin catalog template: %w", err)
	}
	if t.AdminRanking, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/ranking.html"); err != nil {
		return nil, fmt.Errorf("admin ranking template: %w", err)
	}

	return t, nil
}
