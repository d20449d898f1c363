package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fanpass/internal/services"
	"fanpass/internal/status"
	"fanpass/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const sessionCookie = "session_token"

type AuthHandler struct {
	app         *pocketbase.PocketBase
	authService *services.AuthService
	sessionTTL  time.Duration
	secure      bool
}

func NewAuthHandler(app *pocketbase.PocketBase, authService *services.AuthService, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		app:         app,
		authService: authService,
		sessionTTL:  sessionTTL,
		secure:      secure,
	}
}

// sessionToken pulls the session token from the cookie or, for API
// clients, from a bearer Authorization header.
func sessionToken(e *core.RequestEvent) string {
	if cookie, err := e.Request.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := e.Request.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireCustomer resolves the caller's session to a customer profile.
func (h *AuthHandler) RequireCustomer(e *core.RequestEvent) (*models.User, error) {
	token := sessionToken(e)
	if token == "" {
		return nil, apis.NewUnauthorizedError("Not authenticated", nil)
	}

	user, err := h.authService.CurrentUser(e.Request.Context(), token)
	if err != nil {
		if errors.Is(err, status.ErrSessionNotFound) {
			return nil, apis.NewUnauthorizedError("Session expired", nil)
		}
		return nil, apis.NewUnauthorizedError("Not authenticated", nil)
	}

	e.Set("customer_id", user.ID)
	return user, nil
}

// ExchangeSession - trade an identity provider session id for a cookie session
func (h *AuthHandler) ExchangeSession(e *core.RequestEvent) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := e.BindBody(&req); err != nil || req.SessionID == "" {
		return apis.NewBadRequestError("session_id is required", err)
	}

	user, token, err := h.authService.Exchange(e.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, status.ErrNotAuthenticated) {
			return apis.NewUnauthorizedError("Invalid session", nil)
		}
		return apis.NewApiError(http.StatusBadGateway, "Identity provider unavailable", nil)
	}

	e.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteNoneMode,
	})

	return e.JSON(http.StatusOK, user)
}

// Me - current customer profile
func (h *AuthHandler) Me(e *core.RequestEvent) error {
	user, err := h.RequireCustomer(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, user)
}

// Logout - drop the session and clear the cookie
func (h *AuthHandler) Logout(e *core.RequestEvent) error {
	if token := sessionToken(e); token != "" {
		if err := h.authService.Logout(e.Request.Context(), token); err != nil {
			return apis.NewApiError(http.StatusInternalServerError, "Logout failed", nil)
		}
	}

	e.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteNoneMode,
	})

	return e.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// BecomeSeller - upgrade the caller so they can list tickets
func (h *AuthHandler) BecomeSeller(e *core.RequestEvent) error {
	user, err := h.RequireCustomer(e)
	if err != nil {
		return err
	}

	if err := h.authService.BecomeSeller(e.Request.Context(), user.ID); err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Could not upgrade account", nil)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "You can now sell tickets", "role": models.RoleSeller})
}
