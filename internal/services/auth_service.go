package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fanpass/internal/status"
	"fanpass/models"
)

// UserStore is the persistence surface the auth flow needs.
type UserStore interface {
	UpsertUserByEmail(email, name, picture string) (*models.User, error)
	GetUser(id string) (*models.User, error)
	SetUserRole(id, role string) error
}

// AuthService exchanges an identity provider session for a local customer
// profile and a server side session.
type AuthService struct {
	users    UserStore
	sessions *SessionService

	providerURL string
	hc          *http.Client
}

func NewAuthService(users UserStore, sessions *SessionService, providerURL string) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		providerURL: providerURL,
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Exchange validates a provider session id, upserts the customer profile
// and stores a session. It returns the customer and the session token the
// cookie should carry.
func (s *AuthService) Exchange(ctx context.Context, providerSessionID string) (*models.User, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.providerURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("exchange: http.NewRequestWithContext: %v", err)
	}
	req.Header.Set("X-Session-ID", providerSessionID)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("exchange: hc.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("exchange: provider status %d: %w", resp.StatusCode, status.ErrNotAuthenticated)
	}

	var reply struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		Picture      string `json:"picture"`
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, "", fmt.Errorf("exchange: decode reply: %v", err)
	}
	if reply.Email == "" || reply.SessionToken == "" {
		return nil, "", fmt.Errorf("exchange: incomplete provider reply: %w", status.ErrNotAuthenticated)
	}

	user, err := s.users.UpsertUserByEmail(reply.Email, reply.Name, reply.Picture)
	if err != nil {
		return nil, "", fmt.Errorf("exchange: %v", err)
	}

	if err := s.sessions.Store(ctx, reply.SessionToken, user.ID); err != nil {
		return nil, "", fmt.Errorf("exchange: %v", err)
	}

	return user, reply.SessionToken, nil
}

// CurrentUser resolves a session token to the customer profile.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(userID)
}

// Logout removes the session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// BecomeSeller upgrades a buyer profile so it can list tickets.
func (s *AuthService) BecomeSeller(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return fmt.Errorf("becomeSeller: %v", err)
	}
	if user.Role == models.RoleAdmin || user.Role == models.RoleSeller {
		return nil
	}
	return s.users.SetUserRole(userID, models.RoleSeller)
}
