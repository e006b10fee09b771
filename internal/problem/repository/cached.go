package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
)

const (
	defaultProblemDetailTTL      = 10 * time.Minute
	defaultProblemDetailEmptyTTL = time.Minute
	problemDetailKeyPrefix       = "problem:detail:"
)

// CachedProblemRepository serves FindByID through Redis and drops the entry on every write.
// Listing, search and statistics go straight to the underlying repository.
type CachedProblemRepository struct {
	ProblemRepository
	cache    cache.BasicOps
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewCachedProblemRepository(inner ProblemRepository, cacheClient cache.BasicOps) *CachedProblemRepository {
	return NewCachedProblemRepositoryWithTTL(inner, cacheClient, defaultProblemDetailTTL, defaultProblemDetailEmptyTTL)
}

func NewCachedProblemRepositoryWithTTL(inner ProblemRepository, cacheClient cache.BasicOps, ttl, emptyTTL time.Duration) *CachedProblemRepository {
	if ttl <= 0 {
		ttl = defaultProblemDetailTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultProblemDetailEmptyTTL
	}
	return &CachedProblemRepository{
		ProblemRepository: inner,
		cache:             cacheClient,
		ttl:               ttl,
		emptyTTL:          emptyTTL,
	}
}

func (r *CachedProblemRepository) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	return cache.GetWithCached[*model.Problem](
		ctx,
		r.cache,
		problemDetailKey(id),
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(p *model.Problem) bool { return p == nil },
		marshalProblem,
		unmarshalProblem,
		func(ctx context.Context) (*model.Problem, error) {
			return r.ProblemRepository.FindByID(ctx, id)
		},
	)
}

// Create drops the key as well, since a lookup before creation may have cached a miss for the new id.
func (r *CachedProblemRepository) Create(ctx context.Context, input model.CreateInput) (*model.Problem, error) {
	p, err := r.ProblemRepository.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Del(ctx, problemDetailKey(p.ID))
	return p, nil
}

func (r *CachedProblemRepository) Update(ctx context.Context, id int64, update model.UpdateInput) (*model.Problem, error) {
	var updated *model.Problem
	err := cache.UpdateCached(ctx, r.cache, func(ctx context.Context) error {
		var err error
		updated, err = r.ProblemRepository.Update(ctx, id, update)
		return err
	}, problemDetailKey(id))
	return updated, err
}

func (r *CachedProblemRepository) Delete(ctx context.Context, id int64) error {
	return cache.UpdateCached(ctx, r.cache, func(ctx context.Context) error {
		return r.ProblemRepository.Delete(ctx, id)
	}, problemDetailKey(id))
}

func (r *CachedProblemRepository) IncrementSubmissions(ctx context.Context, id int64, accepted bool) (*model.Problem, error) {
	var updated *model.Problem
	err := cache.UpdateCached(ctx, r.cache, func(ctx context.Context) error {
		var err error
		updated, err = r.ProblemRepository.IncrementSubmissions(ctx, id, accepted)
		return err
	}, problemDetailKey(id))
	return updated, err
}

func problemDetailKey(id int64) string {
	return problemDetailKeyPrefix + fmtInt64(id)
}

func marshalProblem(p *model.Problem) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func unmarshalProblem(data string) (*model.Problem, error) {
	var p model.Problem
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ ProblemRepository = (*CachedProblemRepository)(nil)
