package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fanpass/internal/status"

	"github.com/redis/go-redis/v9"
)

// SessionService keeps auth sessions in Redis. A session maps the opaque
// token held by the browser cookie to a customer id and expires on its
// own through the key TTL.
type SessionService struct {
	redis *redis.Client
	ttl   time.Duration
}

type sessionData struct {
	UserID  string `json:"user_id"`
	Created string `json:"created"`
}

func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{
		redis: redisClient,
		ttl:   ttl,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Store saves a session token for a user with the configured TTL.
func (s *SessionService) Store(ctx context.Context, token, userID string) error {
	data, err := json.Marshal(sessionData{
		UserID:  userID,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("session store: marshal: %v", err)
	}

	if err := s.redis.Set(ctx, sessionKey(token), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %v", err)
	}

	return nil
}

// Lookup resolves a session token to a customer id.
func (s *SessionService) Lookup(ctx context.Context, token string) (string, error) {
	raw, err := s.redis.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", status.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session lookup: %v", err)
	}

	var data sessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("session lookup: unmarshal: %v", err)
	}

	return data.UserID, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session delete: %v", err)
	}
	return nil
}
