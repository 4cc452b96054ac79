package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/gacharank/internal/archive"
	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/handlers"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/repository"
	"github.com/abrezinsky/gacharank/internal/services"
	"github.com/abrezinsky/gacharank/internal/testutil"
	"github.com/abrezinsky/gacharank/pkg/surface"
)

// testSetup creates all the dependencies needed for testing handlers
type testSetup struct {
	repo       *repository.Repository
	client     *surface.MockClient
	handlers   *handlers.Handlers
	router     chi.Router
	authCookie *http.Cookie
	userToken  string
}

// newTestSetup creates a new test setup with in-memory repository
func newTestSetup(t *testing.T) *testSetup {
	t.Helper()

	repo := testutil.NewTestRepository(t)
	client := surface.NewMockClient()
	log := logger.New()

	catalog := services.NewCatalogService(log, repo)
	cooldown := services.NewCooldownService(repo, time.Hour, nil)
	ledger := services.NewLedgerService(log, repo)
	board := services.NewLeaderboardService(repo)
	publisher := services.NewPublisher(log, client, repo, services.PublisherConfig{
		RankChannelID:    "rank-ch",
		ArchiveChannelID: "archive-ch",
		BoardSize:        20,
	})
	draw := services.NewDrawService(log, repo, cooldown, ledger, board, publisher, client,
		services.DrawConfig{BatchSize: 10, BoardSize: 20})
	sinks := archive.NewMulti(log, archive.NewRepositorySink(repo), publisher)
	ranking := services.NewRankingService(log, repo, ledger, board, publisher, sinks, client, 20)
	panels := services.NewPanelService(log, repo, client, "http://gacha.local")

	h := handlers.NewForTesting(catalog, draw, board, ranking, panels, cooldown)

	// Login to get a session cookie for authenticated requests
	session, ok := h.Auth.Login(handlers.TestPassword)
	if !ok {
		t.Fatal("test login failed")
	}
	token, err := h.Tokens.Issue("u1", "Alice", false)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return &testSetup{
		repo:       repo,
		client:     client,
		handlers:   h,
		router:     h.Router(),
		authCookie: &http.Cookie{Name: auth.CookieName, Value: session},
		userToken:  token,
	}
}

// adminRequest performs an authenticated admin request with an optional JSON body
func (s *testSetup) adminRequest(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(t, method, path, body)
	req.AddCookie(s.authCookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// userRequest performs a request carrying the adapter bearer token
func (s *testSetup) userRequest(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return s.tokenRequest(t, s.userToken, method, path, body)
}

func (s *testSetup) tokenRequest(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// publicRequest performs an unauthenticated request
func (s *testSetup) publicRequest(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var apiErr handlers.APIError
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != want {
		t.Errorf("expected error code %q, got %q (%s)", want, apiErr.Code, apiErr.Message)
	}
}
