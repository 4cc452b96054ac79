package handlers

import (
	"net/http"

	"github.com/abrezinsky/gacharank/internal/auth"
)

// Two kinds of caller reach the server. Admins sign in through the login
// form and carry a session cookie. Platform adapters never see that form:
// an admin mints them a bearer token through handleIssueToken.

// LoginPageData holds data for the admin login template
type LoginPageData struct {
	Error string
}

// handleLoginPage renders the admin login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Auth.GetSessionFromRequest(r) {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}

	h.templates.AdminLogin.Execute(w, LoginPageData{})
}

// handleLogin exchanges the admin password for a session cookie
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Auth.Login(r.FormValue("password"))
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		h.templates.AdminLogin.Execute(w, LoginPageData{
			Error: "Invalid admin password",
		})
		return
	}

	auth.SetSessionCookie(w, session)
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// handleLogout ends the admin session. Bearer tokens already handed to
// adapters stay valid until they expire.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

// handleIssueToken mints a bearer token for a platform adapter. Admin
// tokens also open the admin API, for scripted catalog maintenance.
func (h *Handlers) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if h.Tokens == nil {
		respondError(w, NotConfigured("token secret not configured"))
		return
	}

	var req TokenIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.UserID == "" {
		respondError(w, BadRequest("user_id is required"))
		return
	}

	token, err := h.Tokens.Issue(req.UserID, req.Name, req.Admin)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, TokenResponse{Token: token})
}
