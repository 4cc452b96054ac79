package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/gacharank/internal/archive"
	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/config"
	"github.com/abrezinsky/gacharank/internal/handlers"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/internal/services"
	"github.com/abrezinsky/gacharank/internal/websocket"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

// refreshInterval is how often live viewers get a full leaderboard resend
const refreshInterval = 30 * time.Second

// App holds all application dependencies
type App struct {
	log           logger.Logger
	cfg           *config.Config
	handlers      *handlers.Handlers
	repo          *repository.Repository
	ranking       *services.RankingService
	archives      *archive.Multi
	cancelRefresh context.CancelFunc

	mu     sync.Mutex
	server *http.Server
}

// New creates and initializes a new application instance. client may be nil
// when no display surface is configured.
func New(log logger.Logger, cfg *config.Config, client surface.Client, templatesFS, staticFS fs.FS, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var tokens *auth.TokenIssuer
	if cfg.TokenSecret != "" {
		if tokens, err = auth.NewTokenIssuer(cfg.TokenSecret, 0); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to create token issuer: %w", err)
		}
		adminAuth.SetTokenIssuer(tokens)
	} else {
		log.Warn("GACHA_TOKEN_SECRET not set, draw API disabled")
	}

	// Initialize services
	catalogService := services.NewCatalogService(log, repo)
	cooldownService := services.NewCooldownService(repo, cfg.Cooldown, nil)
	ledgerService := services.NewLedgerService(log, repo)
	leaderboardService := services.NewLeaderboardService(repo)
	publisher := services.NewPublisher(log, client, repo, services.PublisherConfig{
		RankChannelID:    cfg.RankChannelID,
		ArchiveChannelID: cfg.ArchiveChannelID,
		BoardSize:        cfg.LeaderboardSize,
	})
	drawService := services.NewDrawService(log, repo, cooldownService, ledgerService, leaderboardService, publisher, client,
		services.DrawConfig{BatchSize: cfg.BatchSize, BoardSize: cfg.LeaderboardSize})

	// Archive sinks run in order: local table first, then remote copies
	sinks := archive.NewMulti(log, archive.NewRepositorySink(repo))
	if cfg.S3Enabled() {
		s3Sink, err := archive.NewS3Sink(context.Background(), archive.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    "archives",
		})
		if err != nil {
			log.Error("S3 archive sink disabled", "bucket", cfg.S3Bucket, "error", err)
		} else {
			sinks.Add(s3Sink)
		}
	}
	if client != nil {
		sinks.Add(publisher)
	}

	rankingService := services.NewRankingService(log, repo, ledgerService, leaderboardService, publisher, sinks, client, cfg.LeaderboardSize)
	panelService := services.NewPanelService(log, repo, client, cfg.BaseURL)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, leaderboardService, cfg.LeaderboardSize)
	hub.Start()
	publisher.SetBroadcaster(hub)
	publisher.SetSource(leaderboardService)

	// Start periodic refresh with context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go hub.RunRefresh(ctx, refreshInterval)

	// Create static file server
	staticServer := handlers.NewStaticServer(staticFS)

	h, err := handlers.New(
		catalogService,
		drawService,
		leaderboardService,
		rankingService,
		panelService,
		cooldownService,
		templatesFS,
		staticServer,
		adminAuth,
		tokens,
		hub,
		log,
		cfg.LeaderboardSize,
	)
	if err != nil {
		cancel() // Clean up refresh goroutine
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	a := &App{
		log:           log,
		cfg:           cfg,
		handlers:      h,
		repo:          repo,
		ranking:       rankingService,
		archives:      sinks,
		cancelRefresh: cancel,
	}

	if cfg.CatalogSeed != "" {
		if err := a.seedCatalog(ctx, catalogService, cfg.CatalogSeed); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// seedCatalog imports a YAML catalog file. Characters already present are kept.
func (a *App) seedCatalog(ctx context.Context, catalog *services.CatalogService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()

	result, err := catalog.ImportYAML(ctx, f)
	if err != nil {
		return fmt.Errorf("import catalog seed %s: %w", path, err)
	}
	for _, msg := range result.Errors {
		a.log.Warn("Catalog seed entry skipped", "file", path, "error", msg)
	}
	a.log.Info("Catalog seed loaded", "file", path, "added", result.Added, "skipped", result.Skipped)
	return nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// ArchiveSinks returns the names of the configured archive sinks
func (a *App) ArchiveSinks() []string {
	return a.archives.Sinks()
}

// Republish pushes the current leaderboard to the rank channel and live viewers
func (a *App) Republish(ctx context.Context) error {
	return a.ranking.Republish(ctx)
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancelRefresh != nil {
		a.cancelRefresh()
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// Run starts the HTTP server and blocks until it stops. A clean Shutdown
// returns nil.
func (a *App) Run(addr string) error {
	baseURL := a.cfg.BaseURL
	if baseURL == "" {
		// Use detected LAN IP so QR codes work from phones on the same network
		ip := getPreferredIP(realNetworkProvider{})
		baseURL = fmt.Sprintf("http://%s%s", ip, addr)
	}
	a.setDefaultLeaderboardURL(baseURL)

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Admin URL", "url", baseURL+"/admin")

	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.mu.Lock()
	a.server = server
	a.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// setDefaultLeaderboardURL stores the live leaderboard address used in panel
// QR codes if none is configured or the current one uses localhost (which
// isn't reachable from phones)
func (a *App) setDefaultLeaderboardURL(baseURL string) {
	ctx := context.Background()
	existing, err := a.repo.GetSetting(ctx, repository.SettingLeaderboardURL)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		a.log.Warn("Failed to read leaderboard_url", "error", err)
		return
	}

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, repository.SettingLeaderboardURL, baseURL); err != nil {
			a.log.Warn("Failed to set default leaderboard_url", "error", err)
		} else {
			a.log.Info("Default leaderboard URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IP address for LAN access.
// Prefers private network addresses (192.168.x.x, 10.x.x.x, 172.16-31.x.x).
// Falls back to localhost if no suitable address is found.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP

	for _, iface := range ifaces {
		// Skip down, loopback, and point-to-point interfaces
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			// Only consider IPv4 addresses
			if ip == nil || ip.To4() == nil {
				continue
			}

			// Skip loopback
			if ip.IsLoopback() {
				continue
			}

			candidates = append(candidates, ip)
		}
	}

	// Prefer private network addresses
	for _, ip := range candidates {
		ipStr := ip.String()
		if strings.HasPrefix(ipStr, "192.168.") ||
			strings.HasPrefix(ipStr, "10.") ||
			isPrivate172(ip) {
			return ipStr
		}
	}

	// Fall back to any non-loopback if no private address found
	if len(candidates) > 0 {
		return candidates[0].String()
	}

	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
