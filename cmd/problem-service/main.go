package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/auth"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/db"
	commonmw "github.com/kuntalKnight/cpftw-problems-service/internal/common/http/middleware"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/mq"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/ratelimit"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/controller"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/problem_service.yaml"
	serviceName       = "cpftw problems service"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "problem service stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	ctx := context.Background()
	appLog := logger.GetLogger()

	problemRepo, closeStore, err := buildRepository(ctx, appCfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisCache *cache.RedisCache
	if appCfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis failed: %w", err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		if appCfg.Cache.Enabled {
			problemRepo = repository.NewCachedProblemRepositoryWithTTL(problemRepo, redisCache, appCfg.Cache.TTL, appCfg.Cache.EmptyTTL)
		}
	}

	var events service.EventPublisher
	if appCfg.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(appCfg.Kafka.KafkaConfig)
		if err != nil {
			return fmt.Errorf("init kafka failed: %w", err)
		}
		defer func() {
			_ = producer.Close()
		}()
		pingCtx, cancel := context.WithTimeout(ctx, appCfg.Kafka.DialTimeout)
		if err := producer.Ping(pingCtx); err != nil {
			logger.Warn(ctx, "kafka is not reachable, problem events may be dropped", zap.Error(err))
		}
		cancel()
		events = service.NewKafkaEventPublisher(producer, appCfg.Kafka.Topic)
	}

	problemService := service.NewProblemService(problemRepo, events, appLog)
	problemController := controller.NewProblemController(problemService, validator.NewRequestValidator(appCfg.Pagination.MaxLimit))

	var authenticator auth.Authenticator
	if appCfg.Auth.Enabled {
		authenticator = auth.NewJWTVerifier(appCfg.Auth.Secret, appCfg.Auth.Issuer)
	}

	if appCfg.Server.Mode != "" {
		gin.SetMode(appCfg.Server.Mode)
	}
	router := controller.NewRouter(controller.RouterConfig{
		ServiceName: serviceName,
		Version:     serviceVersion,
		BodyLimit:   appCfg.Server.BodyLimit,
		CORS:        appCfg.CORS,
		Auth:        commonmw.AuthPolicy{Enabled: appCfg.Auth.Enabled, Roles: appCfg.Auth.Roles},
	}, controller.RouterDeps{
		Problems:      problemController,
		Limiter:       buildLimiter(appCfg.RateLimit, redisCache),
		Authenticator: authenticator,
		Logger:        appLog,
	})

	httpServer := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "problem http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("store", appCfg.Store.Driver),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, appCfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	return serveErr
}

func buildRepository(ctx context.Context, cfg StoreConfig) (repository.ProblemRepository, func(), error) {
	if cfg.Driver == storeDriverMemory {
		logger.Warn(ctx, "using in-memory problem store, data is lost on restart")
		return repository.NewMemoryProblemRepository(), func() {}, nil
	}

	mongoDB, err := db.NewMongoWithConfig(ctx, &cfg.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("init mongodb failed: %w", err)
	}
	closeStore := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Close(closeCtx)
	}

	repo := repository.NewMongoProblemRepositoryWithCollections(mongoDB.Database(), cfg.Collection, cfg.CounterCollection)
	if cfg.EnsureIndexes != nil && *cfg.EnsureIndexes {
		indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("ensure problem indexes failed: %w", err)
		}
	}
	logger.Info(ctx, "mongodb connected",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Collection),
	)
	return repo, closeStore, nil
}

func buildLimiter(cfg RateLimitConfig, redisCache *cache.RedisCache) ratelimit.Limiter {
	if !cfg.Enabled {
		return nil
	}
	if redisCache != nil {
		return ratelimit.NewRedisLimiter(redisCache, "problems:rate", cfg.Max, cfg.Window, cfg.RedisTimeout)
	}
	return ratelimit.NewLocalLimiter(cfg.Max, cfg.Window)
}
