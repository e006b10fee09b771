package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"
)

const seedYAML = `
problems:
  - title: Two Sum
    description: Return indices of the two numbers that add up to target.
    difficulty: Easy
    category: Array
    tags: [array, hash-table]
    testCases:
      - input: "[2,7,11,15], 9"
        output: "[0,1]"
  - title: Broken
    description: short
    difficulty: trivial
    category: Misc
    testCases: []
  - title: Valid Parentheses
    description: Decide whether the bracket string is well formed.
    difficulty: easy
    category: Stack
    timeLimit: 2000
    testCases:
      - input: "()[]{}"
        output: "true"
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problems.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed failed: %v", err)
	}
	return path
}

func TestSeedProblemsCreatesValidEntries(t *testing.T) {
	entries, err := loadSeedFile(writeSeed(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	repo := repository.NewMemoryProblemRepository()
	svc := service.NewProblemService(repo, nil, logger.Nop())
	report, err := seedProblems(context.Background(), svc, validator.NewRequestValidator(0), entries, false, logger.Nop())
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if report.Created != 2 || report.Invalid != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	page, err := repo.FindAll(context.Background(), model.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 stored problems, got %d", page.Total)
	}

	report, err = seedProblems(context.Background(), svc, validator.NewRequestValidator(0), entries, false, logger.Nop())
	if err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	if report.Created != 0 || report.Skipped != 2 || report.Invalid != 1 {
		t.Fatalf("unexpected reseed report: %+v", report)
	}
}

func TestSeedProblemsDryRunWritesNothing(t *testing.T) {
	entries, err := loadSeedFile(writeSeed(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	report, err := seedProblems(context.Background(), nil, validator.NewRequestValidator(0), entries, true, logger.Nop())
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if report.Created != 2 || report.Invalid != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	if _, err := loadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}
