package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/db"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultSeedPath = "scripts/seed/problems.yaml"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env failed: %v\n", err)
		os.Exit(1)
	}

	mongoDefaults := db.DefaultMongoConfig()
	filePath := flag.String("file", defaultSeedPath, "Path to the seed file")
	mongoURI := flag.String("mongo-uri", envOr("MONGODB_URI", mongoDefaults.URI), "MongoDB connection string")
	database := flag.String("database", envOr("MONGODB_DATABASE", mongoDefaults.Database), "MongoDB database")
	dryRun := flag.Bool("dry-run", false, "Validate the seed file without writing")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: envOr("LOG_LEVEL", "info"), Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg := *mongoDefaults
	cfg.URI = *mongoURI
	cfg.Database = *database
	if err := run(*filePath, &cfg, *dryRun); err != nil {
		logger.Error(context.Background(), "seed failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(path string, cfg *db.MongoConfig, dryRun bool) error {
	ctx := context.Background()
	entries, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	logger.Info(ctx, "seed file loaded", zap.String("path", path), zap.Int("problems", len(entries)))

	var creator problemCreator
	if !dryRun {
		mongoDB, err := db.NewMongoWithConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init mongodb failed: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoDB.Close(closeCtx)
		}()
		repo := repository.NewMongoProblemRepository(mongoDB.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure problem indexes failed: %w", err)
		}
		creator = service.NewProblemService(repo, nil, logger.GetLogger())
	}

	report, err := seedProblems(ctx, creator, validator.NewRequestValidator(0), entries, dryRun, logger.GetLogger())
	logger.Info(ctx, "seed finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("invalid", report.Invalid),
	)
	return err
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
