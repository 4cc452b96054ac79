package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/handlers"
	"github.com/abrezinsky/gacharank/internal/testutil"
)

func postForm(h http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginPage(t *testing.T) {
	h, err := newPageSetup(t, createTestTemplatesFS())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Login") {
		t.Errorf("expected login page, got %q", rec.Body.String())
	}
}

func TestLoginPage_AlreadyLoggedIn(t *testing.T) {
	h, err := newPageSetup(t, createTestTemplatesFS())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	session, _ := h.Auth.Login("page-password")

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: session})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin" {
		t.Errorf("expected redirect to /admin, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLogin_Success(t *testing.T) {
	h, err := newPageSetup(t, createTestTemplatesFS())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	rec := postForm(h.Router(), "/admin/login", url.Values{"password": {"page-password"}}, nil)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if !h.Auth.ValidateSession(session.Value) {
		t.Error("expected the issued session to be valid")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, err := newPageSetup(t, createTestTemplatesFS())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	rec := postForm(h.Router(), "/admin/login", url.Values{"password": {"nope"}}, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid admin password") {
		t.Errorf("expected error message, got %q", rec.Body.String())
	}
}

func TestLogout(t *testing.T) {
	h, err := newPageSetup(t, createTestTemplatesFS())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	session, _ := h.Auth.Login("page-password")
	cookie := &http.Cookie{Name: auth.CookieName, Value: session}

	rec := postForm(h.Router(), "/admin/logout", url.Values{}, cookie)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Errorf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if h.Auth.ValidateSession(session) {
		t.Error("expected session invalidated")
	}
}

// ==================== Tokens ====================

func TestIssueToken(t *testing.T) {
	setup := newTestSetup(t)
	testutil.SeedCharacters(t, setup.repo, testutil.Character("c1", gacha.TierA, 1))

	rec := setup.adminRequest(t, http.MethodPost, "/api/admin/tokens", handlers.TokenIssueRequest{UserID: "u9", Name: "Nine"})
	expectStatus(t, rec, http.StatusCreated)

	var resp handlers.TokenResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	rec = setup.tokenRequest(t, resp.Token, http.MethodPost, "/api/draw", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestIssueToken_MissingUser(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.adminRequest(t, http.MethodPost, "/api/admin/tokens", handlers.TokenIssueRequest{Name: "Nobody"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestIssueToken_AdapterTokenCannotReachAdminAPI(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.adminRequest(t, http.MethodPost, "/api/admin/tokens", handlers.TokenIssueRequest{UserID: "u9"})
	expectStatus(t, rec, http.StatusCreated)
	var adapter handlers.TokenResponse
	decodeBody(t, rec, &adapter)

	rec = setup.tokenRequest(t, adapter.Token, http.MethodGet, "/api/admin/catalog", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = setup.adminRequest(t, http.MethodPost, "/api/admin/tokens", handlers.TokenIssueRequest{UserID: "ops", Admin: true})
	expectStatus(t, rec, http.StatusCreated)
	var admin handlers.TokenResponse
	decodeBody(t, rec, &admin)

	rec = setup.tokenRequest(t, admin.Token, http.MethodGet, "/api/admin/catalog", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestLogout_AdapterTokenSurvives(t *testing.T) {
	setup := newTestSetup(t)
	testutil.SeedCharacters(t, setup.repo, testutil.Character("c1", gacha.TierA, 1))

	rec := setup.adminRequest(t, http.MethodPost, "/api/admin/tokens", handlers.TokenIssueRequest{UserID: "u9"})
	var resp handlers.TokenResponse
	decodeBody(t, rec, &resp)

	rec = postForm(setup.router, "/admin/logout", url.Values{}, setup.authCookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	rec = setup.adminRequest(t, http.MethodGet, "/api/admin/catalog", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = setup.tokenRequest(t, resp.Token, http.MethodPost, "/api/draw", nil)
	expectStatus(t, rec, http.StatusOK)
}
