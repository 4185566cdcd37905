package repository

import (
	"context"
	"fmt"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/pkg/cache"
)

const (
	snapshotKey = "signal:latest"
	snapshotTTL = 2 * time.Minute
)

// RedisSnapshotStore shares the latest signal snapshot through Redis
// so other processes can read it without calling the engine.
type RedisSnapshotStore struct {
	cache *cache.RedisCache
}

func NewRedisSnapshotStore(c *cache.RedisCache) *RedisSnapshotStore {
	return &RedisSnapshotStore{cache: c}
}

func (s *RedisSnapshotStore) SaveSnapshot(ctx context.Context, sig *models.SignalResult) error {
	if err := s.cache.Set(ctx, snapshotKey, sig, snapshotTTL); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) LoadSnapshot(ctx context.Context) (*models.SignalResult, error) {
	var sig models.SignalResult
	if err := s.cache.Get(ctx, snapshotKey, &sig); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &sig, nil
}
