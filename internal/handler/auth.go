package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/service"
	"github.com/sakif/cert-tracker/internal/session"
)

const stateCookieName = "oauth_state"

// GoogleAuthenticator is the part of the Google OAuth provider the handler
// uses. *auth.GoogleProvider satisfies it.
type GoogleAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// CookieOptions controls the session cookie issued after sign-in.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler runs the Google sign-in flow and reports session changes to
// the session hub.
//
//   - HandleGoogleLogin    → redirect to Google with a CSRF state cookie
//   - HandleGoogleCallback → verify state, exchange code, issue JWT cookie
//   - HandleLogout         → clear the cookie
//   - HandleMe             → current user's profile
type AuthHandler struct {
	google   GoogleAuthenticator
	auth     *service.AuthService
	identity *service.IdentityService
	hub      *session.Hub
	cookies  CookieOptions
	logger   *slog.Logger
}

func NewAuthHandler(
	google GoogleAuthenticator,
	authService *service.AuthService,
	identity *service.IdentityService,
	hub *session.Hub,
	cookies CookieOptions,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google:   google,
		auth:     authService,
		identity: identity,
		hub:      hub,
		cookies:  cookies,
		logger:   logger,
	}
}

// HandleGoogleLogin redirects the browser to Google's consent page.
//
// HTTP: GET /auth/google/login
//
// A random state value goes both into a short-lived HttpOnly cookie and the
// authorization URL; the callback only proceeds when the two match.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the sign-in.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a Google profile
//  3. Resolve the profile to a user and issue a JWT cookie
//  4. Announce the sign-in on the session hub
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code", Field: "code"})
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("auth callback: Google exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "authentication_failed", Message: "authentication failed"})
		return
	}

	result, err := h.auth.SignInGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token, int(h.cookies.TTL.Seconds()))
	h.hub.Publish(session.Event{Type: session.SignedIn, UserID: result.User.ID})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless, so this only removes the cookie; the JWT itself stays
// valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		h.hub.Publish(session.Event{Type: session.SignedOut, UserID: userID})
		h.logger.Info("user signed out", slog.String("userID", userID))
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.identity.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
