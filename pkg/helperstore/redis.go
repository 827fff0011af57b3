package helperstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/config"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

const helperKeyPrefix = "helpers:did:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed helper data store and verifies the
// connection with a ping.
func NewRedisStore(cfg *config.RedisConfig) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Test helper.
func NewRedisStoreWithClient(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error) {
	payload, err := json.Marshal(helpers)
	if err != nil {
		return "", fmt.Errorf("failed to encode helper data: %w", err)
	}

	if err := s.client.Set(ctx, helperKeyPrefix+did, payload, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to store helper data: %w", err)
	}
	return URIScheme + did, nil
}

func (s *redisStore) Delete(ctx context.Context, did string) error {
	if err := s.client.Del(ctx, helperKeyPrefix+did).Err(); err != nil {
		return fmt.Errorf("failed to delete helper data: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, uri string) (map[biometric.Finger]fuzzy.HelperDataEntry, error) {
	did, err := didFromURI(uri)
	if err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, helperKeyPrefix+did).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load helper data: %w", err)
	}

	var helpers map[biometric.Finger]fuzzy.HelperDataEntry
	if err := json.Unmarshal(payload, &helpers); err != nil {
		return nil, fmt.Errorf("failed to decode helper data: %w", err)
	}
	return helpers, nil
}

// Close releases the underlying client.
func (s *redisStore) Close() error {
	return s.client.Close()
}
