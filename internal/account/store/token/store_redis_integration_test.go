//go:build integration

package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"biblio/internal/account/models"
	"biblio/internal/account/store/token"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
	"biblio/pkg/testutil/containers"
)

type RedisTokenStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *token.Redis
}

func TestRedisTokenStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTokenStoreSuite))
}

func (s *RedisTokenStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = token.NewRedis(s.redis.Client)
}

func (s *RedisTokenStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// TestRoundTrip verifies tokens survive a save and load through Redis.
func (s *RedisTokenStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Now()
	accountID := id.NewAccountID()
	s.Require().NoError(s.store.Save(ctx, models.NewRegistrationToken("tok", accountID, 24*time.Hour, now)))

	found, err := s.store.Find(ctx, "tok", now)
	s.Require().NoError(err)
	s.Equal(accountID, found.AccountID)

	ttl, err := s.redis.Client.TTL(ctx, "biblio:regtoken:tok").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 23*time.Hour)

	s.Require().NoError(s.store.Delete(ctx, "tok"))
	_, err = s.store.Find(ctx, "tok", now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestKeyExpiry verifies Redis drops the key once the token lapses.
func (s *RedisTokenStoreSuite) TestKeyExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, models.NewRegistrationToken("short", id.NewAccountID(), 1500*time.Millisecond, time.Now())))

	s.Eventually(func() bool {
		_, err := s.store.Find(ctx, "short", time.Now())
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
