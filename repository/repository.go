package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/repository/redis_repository"
)

// ErrRunNotFound is returned when the archive has no run for the given ID.
var ErrRunNotFound = redis_repository.ErrRunNotFound

// RunRepository archives completed research runs for later retrieval.
type RunRepository interface {
	SaveRun(ctx context.Context, run core.RunResult) error
	GetRun(ctx context.Context, id string) (core.RunResult, error)
	ListRuns(ctx context.Context) ([]core.RunResult, error)
	DeleteRun(ctx context.Context, id string) error
}

// NewRunRepository picks the archive backend from config: Redis when
// configured, an in-process map otherwise.
func NewRunRepository(ctx context.Context, cfg config.StorageConfig) (RunRepository, error) {
	if !cfg.Redis.Enabled() {
		return NewMemoryRunRepository(), nil
	}
	client, err := redis_repository.Conn(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	return redis_repository.NewRedisRunRepository(client, cfg.Redis.TTL), nil
}

// memoryRunRepository keeps runs in process memory. Used when no Redis is
// configured and by tests.
type memoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]core.RunResult
}

func NewMemoryRunRepository() RunRepository {
	return &memoryRunRepository{runs: make(map[string]core.RunResult)}
}

func (m *memoryRunRepository) SaveRun(ctx context.Context, run core.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRunRepository) GetRun(ctx context.Context, id string) (core.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return core.RunResult{}, ErrRunNotFound
	}
	return run, nil
}

func (m *memoryRunRepository) ListRuns(ctx context.Context) ([]core.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RunResult, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRunRepository) DeleteRun(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}
