package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
)

// MemoryProblemRepository keeps the catalog in process. It follows the same
// query rules as the Mongo store; search relevance is the number of query term hits.
type MemoryProblemRepository struct {
	mu       sync.RWMutex
	problems map[int64]*model.Problem
	lastID   int64
	now      func() time.Time
}

func NewMemoryProblemRepository() *MemoryProblemRepository {
	return &MemoryProblemRepository{
		problems: make(map[int64]*model.Problem),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for createdAt and updatedAt.
func (r *MemoryProblemRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryProblemRepository) FindAll(ctx context.Context, filter model.ListFilter) (model.ProblemPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Problem, 0, len(r.problems))
	for _, p := range r.problems {
		if matchesListFilter(p, filter) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[i], matched[j]) })
	return pageOf(matched, filter), nil
}

func (r *MemoryProblemRepository) Search(ctx context.Context, filter model.SearchFilter) (model.ProblemPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(filter.Query))
	scores := make(map[int64]int)
	matched := make([]*model.Problem, 0)
	for _, p := range r.problems {
		if !matchesListFilter(p, filter.ListFilter) {
			continue
		}
		if len(terms) > 0 {
			score := relevance(p, terms)
			if score == 0 {
				continue
			}
			scores[p.ID] = score
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		return newerFirst(a, b)
	})
	return pageOf(matched, filter.ListFilter), nil
}

func (r *MemoryProblemRepository) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

func (r *MemoryProblemRepository) Create(ctx context.Context, input model.CreateInput) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.titleTaken(input.Title, 0) {
		return nil, ErrProblemAlreadyExists
	}
	r.lastID++
	p := model.NewProblem(input, r.now())
	p.ID = r.lastID
	r.problems[p.ID] = p
	return clone(p), nil
}

func (r *MemoryProblemRepository) Update(ctx context.Context, id int64, update model.UpdateInput) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, ErrProblemNotFound
	}
	if update.Title != nil && r.titleTaken(*update.Title, id) {
		return nil, ErrProblemAlreadyExists
	}
	update.Apply(p, r.now())
	return clone(p), nil
}

func (r *MemoryProblemRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return ErrProblemNotFound
	}
	p.IsActive = false
	p.UpdatedAt = r.now()
	return nil
}

func (r *MemoryProblemRepository) IncrementSubmissions(ctx context.Context, id int64, accepted bool) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, ErrProblemNotFound
	}
	p.RecordSubmission(accepted)
	p.UpdatedAt = r.now()
	return clone(p), nil
}

func (r *MemoryProblemRepository) GetStatistics(ctx context.Context) (model.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats model.Statistics
	for _, p := range r.problems {
		if !p.IsActive {
			continue
		}
		stats.TotalProblems++
		switch p.Difficulty {
		case model.DifficultyEasy:
			stats.EasyProblems++
		case model.DifficultyMedium:
			stats.MediumProblems++
		case model.DifficultyHard:
			stats.HardProblems++
		}
		stats.TotalSubmissions += p.Submissions
		stats.TotalAcceptedSubmissions += p.AcceptedSubmissions
	}
	return stats, nil
}

// titleTaken must be called with the lock held. Soft-deleted problems keep their title.
func (r *MemoryProblemRepository) titleTaken(title string, except int64) bool {
	for id, p := range r.problems {
		if id != except && p.Title == title {
			return true
		}
	}
	return false
}

func matchesListFilter(p *model.Problem, filter model.ListFilter) bool {
	if !p.IsActive {
		return false
	}
	if filter.Difficulty != "" && string(p.Difficulty) != strings.ToLower(string(filter.Difficulty)) {
		return false
	}
	if filter.Category != "" && !strings.Contains(strings.ToLower(p.Category), strings.ToLower(filter.Category)) {
		return false
	}
	return true
}

func relevance(p *model.Problem, terms []string) int {
	text := strings.ToLower(p.Title + " " + p.Description + " " + p.Category)
	score := 0
	for _, term := range terms {
		score += strings.Count(text, term)
	}
	return score
}

func newerFirst(a, b *model.Problem) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func pageOf(matched []*model.Problem, filter model.ListFilter) model.ProblemPage {
	total := int64(len(matched))
	start := filter.Skip()
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+int64(filter.Limit) < end {
		end = start + int64(filter.Limit)
	}
	items := make([]model.Problem, 0, end-start)
	for _, p := range matched[start:end] {
		items = append(items, *clone(p))
	}
	return model.NewProblemPage(items, total, filter.Page, filter.Limit)
}

func clone(p *model.Problem) *model.Problem {
	c := *p
	c.TestCases = append([]model.TestCase(nil), p.TestCases...)
	c.Constraints = append([]string{}, p.Constraints...)
	c.Tags = append([]string{}, p.Tags...)
	return &c
}

var _ ProblemRepository = (*MemoryProblemRepository)(nil)
