package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Problems []map[string]interface{} `yaml:"problems"`
}

// seedReport counts what happened to each entry of a seed file.
type seedReport struct {
	Created int
	Skipped int
	Invalid int
}

// problemCreator is the part of the problem service the seeder writes through.
type problemCreator interface {
	CreateProblem(ctx context.Context, input model.CreateInput) (*model.Problem, error)
}

var _ problemCreator = (*service.ProblemService)(nil)

func loadSeedFile(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file failed: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file failed: %w", err)
	}
	return file.Problems, nil
}

// seedProblems validates every entry with the create schema and inserts the valid ones.
// Existing titles are skipped. With dryRun set nothing is written.
func seedProblems(ctx context.Context, creator problemCreator, requests *validator.RequestValidator, entries []map[string]interface{}, dryRun bool, log *logger.Logger) (seedReport, error) {
	var report seedReport
	for i, entry := range entries {
		body, err := json.Marshal(entry)
		if err != nil {
			log.Warn(ctx, "seed entry is not serializable", zap.Int("index", i), zap.Error(err))
			report.Invalid++
			continue
		}
		verdict := requests.ValidateCreateProblem(body)
		if !verdict.IsValid {
			log.Warn(ctx, "seed entry rejected", zap.Int("index", i), zap.Strings("errors", verdict.Errors))
			report.Invalid++
			continue
		}
		input := verdict.ValidatedData.(model.CreateInput)
		if dryRun {
			log.Info(ctx, "seed entry valid", zap.String("title", input.Title))
			report.Created++
			continue
		}

		created, err := creator.CreateProblem(ctx, input)
		switch {
		case err == nil:
			log.Info(ctx, "problem seeded", zap.Int64("problem_id", created.ID), zap.String("title", created.Title))
			report.Created++
		case pkgerrors.Is(err, pkgerrors.ProblemAlreadyExists):
			log.Info(ctx, "problem already exists, skipped", zap.String("title", input.Title))
			report.Skipped++
		default:
			return report, fmt.Errorf("seed %q failed: %w", input.Title, err)
		}
	}
	return report, nil
}
