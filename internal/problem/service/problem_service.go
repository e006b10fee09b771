package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"go.uber.org/zap"
)

const publishTimeout = 3 * time.Second

// ProblemService applies catalog business rules on top of the repository.
type ProblemService struct {
	repo   repository.ProblemRepository
	events EventPublisher
	log    *logger.Logger
	now    func() time.Time
}

// NewProblemService creates a new ProblemService. A nil publisher drops events.
func NewProblemService(repo repository.ProblemRepository, events EventPublisher, log *logger.Logger) *ProblemService {
	if events == nil {
		events = NopEventPublisher{}
	}
	return &ProblemService{repo: repo, events: events, log: log, now: time.Now}
}

// GetProblem returns the problem with id, or nil when there is none.
func (s *ProblemService) GetProblem(ctx context.Context, id int64) (*model.Problem, error) {
	problem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err, "get problem", zap.Int64("problem_id", id))
	}
	return problem, nil
}

// ListProblems returns one page of active problems.
func (s *ProblemService) ListProblems(ctx context.Context, filter model.ListFilter) (model.ProblemPage, error) {
	page, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return model.ProblemPage{}, s.translate(ctx, err, "list problems")
	}
	return page, nil
}

// SearchProblems returns one page of active problems matching the query.
func (s *ProblemService) SearchProblems(ctx context.Context, filter model.SearchFilter) (model.ProblemPage, error) {
	page, err := s.repo.Search(ctx, filter)
	if err != nil {
		return model.ProblemPage{}, s.translate(ctx, err, "search problems", zap.String("query", filter.Query))
	}
	return page, nil
}

// CreateProblem stores a new problem. A taken title yields ProblemAlreadyExists.
func (s *ProblemService) CreateProblem(ctx context.Context, input model.CreateInput) (*model.Problem, error) {
	problem, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, s.translate(ctx, err, "create problem", zap.String("title", input.Title))
	}
	s.log.Info(ctx, "problem created", zap.Int64("problem_id", problem.ID), zap.String("title", problem.Title))
	s.publish(ctx, model.ProblemEventCreated, problem, nil)
	return problem, nil
}

// UpdateProblem merges the set fields into an existing problem.
func (s *ProblemService) UpdateProblem(ctx context.Context, id int64, input model.UpdateInput) (*model.Problem, error) {
	if err := s.mustExist(ctx, id, "update problem"); err != nil {
		return nil, err
	}
	problem, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, s.translate(ctx, err, "update problem", zap.Int64("problem_id", id))
	}
	s.log.Info(ctx, "problem updated", zap.Int64("problem_id", id))
	s.publish(ctx, model.ProblemEventUpdated, problem, nil)
	return problem, nil
}

// DeleteProblem soft deletes an existing problem.
func (s *ProblemService) DeleteProblem(ctx context.Context, id int64) error {
	if err := s.mustExist(ctx, id, "delete problem"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(ctx, err, "delete problem", zap.Int64("problem_id", id))
	}
	s.log.Info(ctx, "problem deleted", zap.Int64("problem_id", id))
	s.publish(ctx, model.ProblemEventDeleted, &model.Problem{ID: id}, nil)
	return nil
}

// RecordSubmission counts one submission against the problem.
func (s *ProblemService) RecordSubmission(ctx context.Context, id int64, accepted bool) (*model.Problem, error) {
	problem, err := s.repo.IncrementSubmissions(ctx, id, accepted)
	if err != nil {
		return nil, s.translate(ctx, err, "record submission", zap.Int64("problem_id", id))
	}
	s.publish(ctx, model.ProblemEventSubmissionRecorded, problem, &accepted)
	return problem, nil
}

// GetStatistics aggregates counters over active problems.
func (s *ProblemService) GetStatistics(ctx context.Context) (model.Statistics, error) {
	stats, err := s.repo.GetStatistics(ctx)
	if err != nil {
		return model.Statistics{}, s.translate(ctx, err, "get statistics")
	}
	return stats, nil
}

func (s *ProblemService) mustExist(ctx context.Context, id int64, action string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translate(ctx, err, action, zap.Int64("problem_id", id))
	}
	if existing == nil {
		return pkgerrors.New(pkgerrors.ProblemNotFound)
	}
	return nil
}

func (s *ProblemService) translate(ctx context.Context, err error, action string, fields ...zap.Field) error {
	switch {
	case errors.Is(err, repository.ErrProblemNotFound):
		return pkgerrors.New(pkgerrors.ProblemNotFound)
	case errors.Is(err, repository.ErrProblemAlreadyExists):
		return pkgerrors.New(pkgerrors.ProblemAlreadyExists)
	}
	s.log.Error(ctx, action+" failed", append(fields, zap.Error(err))...)
	return pkgerrors.Wrap(fmt.Errorf("%s failed: %w", action, err), pkgerrors.DatabaseError)
}

func (s *ProblemService) publish(ctx context.Context, eventType string, problem *model.Problem, accepted *bool) {
	event := model.ProblemEvent{
		EventType:  eventType,
		ProblemID:  problem.ID,
		Title:      problem.Title,
		Difficulty: problem.Difficulty,
		Accepted:   accepted,
		OccurredAt: s.now().UTC(),
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(publishCtx, event); err != nil {
		s.log.Warn(ctx, "publish problem event failed",
			zap.String("event_type", eventType),
			zap.Int64("problem_id", problem.ID),
			zap.Error(err),
		)
	}
}
