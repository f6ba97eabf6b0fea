package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"biblio/internal/account/models"
	"biblio/pkg/platform/sentinel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const registrationTokenKeyPrefix = "biblio:regtoken:"

// Redis stores registration tokens with a key TTL matching their expiry, so every
// instance behind a load balancer can complete a registration.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Save(ctx context.Context, token *models.RegistrationToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("registration token already expired: %w", sentinel.ErrInvalidState)
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode registration token: %w", err)
	}
	if err := s.client.Set(ctx, registrationTokenKeyPrefix+token.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save registration token: %w", err)
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, token string, now time.Time) (*models.RegistrationToken, error) {
	raw, err := s.client.Get(ctx, registrationTokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("registration token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load registration token: %w", err)
	}
	var t models.RegistrationToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode registration token: %w", err)
	}
	// Redis expiry has one second resolution.
	if t.IsExpiredAt(now) {
		return nil, fmt.Errorf("registration token expired: %w", sentinel.ErrExpired)
	}
	return &t, nil
}

func (s *Redis) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, registrationTokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete registration token: %w", err)
	}
	return nil
}
