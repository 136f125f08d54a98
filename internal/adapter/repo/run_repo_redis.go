package repo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"rockstar/internal/domain"
)

// Key layout mirrors the original deployment: one hash per run plus a set of
// pending ids. The sent claim is a separate SETNX key so it stays atomic.
const (
	runKeyPrefix  = "run:"
	sentKeyPrefix = "sent:"
	pendingSetKey = "runs:pending"
)

// RunStoreRedis implements domain.RunStore on a redis-compatible KV store.
type RunStoreRedis struct {
	client *redis.Client
}

func NewRunStoreRedis(client *redis.Client) *RunStoreRedis {
	return &RunStoreRedis{client: client}
}

func (s *RunStoreRedis) SaveRun(ctx context.Context, run domain.Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	fields := map[string]any{
		"nombre":     run.Nombre,
		"apellido":   run.Apellido,
		"email":      run.Email,
		"escena":     run.Escena,
		"created_at": created.Format(time.RFC3339),
	}
	if err := s.client.HSet(ctx, runKeyPrefix+run.ID, fields).Err(); err != nil {
		return err
	}
	return s.client.SAdd(ctx, pendingSetKey, run.ID).Err()
}

func (s *RunStoreRedis) GetRun(ctx context.Context, runID string) (domain.Run, error) {
	data, err := s.client.HGetAll(ctx, runKeyPrefix+runID).Result()
	if err != nil {
		return domain.Run{}, err
	}
	if len(data) == 0 {
		return domain.Run{}, domain.ErrNotFound
	}

	run := domain.Run{
		ID:       runID,
		Nombre:   data["nombre"],
		Apellido: data["apellido"],
		Email:    data["email"],
		Escena:   data["escena"],
	}
	if ts, err := time.Parse(time.RFC3339, data["created_at"]); err == nil {
		run.CreatedAt = ts
	}
	sent, err := s.client.Exists(ctx, sentKeyPrefix+runID).Result()
	if err != nil {
		return domain.Run{}, err
	}
	run.Sent = sent == 1
	return run, nil
}

func (s *RunStoreRedis) PendingRuns(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, pendingSetKey).Result()
}

func (s *RunStoreRedis) RemovePending(ctx context.Context, runID string) error {
	return s.client.SRem(ctx, pendingSetKey, runID).Err()
}

func (s *RunStoreRedis) DeleteRun(ctx context.Context, runID string) error {
	return s.client.Del(ctx, runKeyPrefix+runID).Err()
}

func (s *RunStoreRedis) MarkSent(ctx context.Context, runID string) (bool, error) {
	return s.client.SetNX(ctx, sentKeyPrefix+runID, "1", 0).Result()
}

func (s *RunStoreRedis) ClearSent(ctx context.Context, runID string) error {
	return s.client.Del(ctx, sentKeyPrefix+runID).Err()
}

var _ domain.RunStore = (*RunStoreRedis)(nil)
