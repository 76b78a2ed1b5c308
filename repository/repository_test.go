package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/prospector/internal/agent/core"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	run := core.RunResult{
		ID:        "abc",
		Subject:   core.Subject{Email: "a@b.com"},
		Rounds:    2,
		CreatedAt: time.Now(),
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetRun(ctx, "abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != "abc" || got.Subject.Email != "a@b.com" || got.Rounds != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := repo.DeleteRun(ctx, "abc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetRun(ctx, "abc"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound after delete, got %v", err)
	}
}

func TestMemoryRepositoryListNewestFirst(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		run := core.RunResult{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "new" || runs[2].ID != "old" {
		t.Fatalf("list order wrong: %+v", runs)
	}
}

func TestMemoryRepositoryDeleteMissing(t *testing.T) {
	repo := NewMemoryRunRepository()
	if err := repo.DeleteRun(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
