package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/prospector/internal/agent/core"
)

const runKeyPrefix = "run:"

// ErrRunNotFound is returned when no archived run exists for an ID.
var ErrRunNotFound = errors.New("run not found")

// redisRunRepository archives research runs in Redis with an optional TTL.
type redisRunRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRunRepository(client *redis.Client, ttl time.Duration) *redisRunRepository {
	return &redisRunRepository{client: client, ttl: ttl}
}

func (r *redisRunRepository) SaveRun(ctx context.Context, run core.RunResult) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, runKeyPrefix+run.ID, data, r.ttl).Err()
}

func (r *redisRunRepository) GetRun(ctx context.Context, id string) (core.RunResult, error) {
	val, err := r.client.Get(ctx, runKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.RunResult{}, ErrRunNotFound
		}
		return core.RunResult{}, err
	}

	var run core.RunResult
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return core.RunResult{}, err
	}
	return run, nil
}

func (r *redisRunRepository) ListRuns(ctx context.Context) ([]core.RunResult, error) {
	keys, err := r.client.Keys(ctx, runKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	var runs []core.RunResult
	for _, key := range keys {
		val, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired between KEYS and GET
				continue
			}
			return nil, err
		}
		var run core.RunResult
		if err := json.Unmarshal([]byte(val), &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func (r *redisRunRepository) DeleteRun(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, runKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
