package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
)

var (
	ErrProblemNotFound      = errors.New("problem not found")
	ErrProblemAlreadyExists = errors.New("problem already exists")
)

// ProblemRepository persists the problem catalog.
// Listing, search and statistics only see active problems; FindByID sees every problem.
type ProblemRepository interface {
	// FindAll returns one page of active problems, newest first.
	FindAll(ctx context.Context, filter model.ListFilter) (model.ProblemPage, error)
	// FindByID returns nil without error when no problem has the id.
	FindByID(ctx context.Context, id int64) (*model.Problem, error)
	// Create assigns the next id. A duplicate title yields ErrProblemAlreadyExists.
	Create(ctx context.Context, input model.CreateInput) (*model.Problem, error)
	// Update merges the set fields and returns the updated problem.
	Update(ctx context.Context, id int64, update model.UpdateInput) (*model.Problem, error)
	// Delete marks the problem inactive; the document is kept.
	Delete(ctx context.Context, id int64) error
	// Search ranks active problems by text relevance, then recency.
	Search(ctx context.Context, filter model.SearchFilter) (model.ProblemPage, error)
	GetStatistics(ctx context.Context) (model.Statistics, error)
	// IncrementSubmissions records one submission and recomputes the acceptance rate.
	IncrementSubmissions(ctx context.Context, id int64, accepted bool) (*model.Problem, error)
}

func fmtInt64(value int64) string {
	return strconv.FormatInt(value, 10)
}
