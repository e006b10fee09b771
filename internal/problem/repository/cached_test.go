package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingRepo struct {
	repository.ProblemRepository
	finds int
}

func (r *countingRepo) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	r.finds++
	return r.ProblemRepository.FindByID(ctx, id)
}

func newCachedRepo(t *testing.T) (*repository.CachedProblemRepository, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	rc, err := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	if err != nil {
		t.Fatalf("create cache failed: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	inner := &countingRepo{ProblemRepository: newClockedRepo()}
	return repository.NewCachedProblemRepositoryWithTTL(inner, rc, time.Minute, time.Minute), inner, server
}

func TestCachedFindByIDServesFromCache(t *testing.T) {
	repo, inner, server := newCachedRepo(t)
	p := mustCreate(t, repo, createInput("Cached", model.DifficultyEasy, "Array", "cached description"))

	for i := 0; i < 3; i++ {
		got, err := repo.FindByID(context.Background(), p.ID)
		if err != nil || got == nil || got.Title != "Cached" || got.TestCases[0].Output != "1" {
			t.Fatalf("unexpected result: %+v %v", got, err)
		}
	}
	if inner.finds != 1 {
		t.Fatalf("expected a single store lookup, got %d", inner.finds)
	}
	if !server.Exists("problem:detail:1") {
		t.Fatalf("expected detail key to be cached")
	}
}

func TestCachedMissIsRememberedAndClearedOnCreate(t *testing.T) {
	repo, inner, _ := newCachedRepo(t)

	for i := 0; i < 2; i++ {
		got, err := repo.FindByID(context.Background(), 1)
		if err != nil || got != nil {
			t.Fatalf("expected absent result, got %+v %v", got, err)
		}
	}
	if inner.finds != 1 {
		t.Fatalf("expected cached miss, got %d lookups", inner.finds)
	}

	mustCreate(t, repo, createInput("Fresh", model.DifficultyEasy, "Array", "fresh description"))
	got, err := repo.FindByID(context.Background(), 1)
	if err != nil || got == nil || got.Title != "Fresh" {
		t.Fatalf("expected created problem after invalidation, got %+v %v", got, err)
	}
}

func TestCachedWritesInvalidate(t *testing.T) {
	repo, _, _ := newCachedRepo(t)
	p := mustCreate(t, repo, createInput("Before", model.DifficultyEasy, "Array", "some description"))
	_, _ = repo.FindByID(context.Background(), p.ID)

	title := "After"
	if _, err := repo.Update(context.Background(), p.ID, model.UpdateInput{Title: &title}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ := repo.FindByID(context.Background(), p.ID)
	if got.Title != "After" {
		t.Fatalf("stale cache after update: %q", got.Title)
	}

	if _, err := repo.IncrementSubmissions(context.Background(), p.ID, true); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	got, _ = repo.FindByID(context.Background(), p.ID)
	if got.Submissions != 1 || got.AcceptanceRate != 100 {
		t.Fatalf("stale cache after increment: %+v", got)
	}

	if err := repo.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, _ = repo.FindByID(context.Background(), p.ID)
	if got.IsActive {
		t.Fatalf("stale cache after delete")
	}
}
