package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/db"
	commonmw "github.com/kuntalKnight/cpftw-problems-service/internal/common/http/middleware"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/mq"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:3000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBodyLimit       = 10 << 20

	defaultCacheTTL      = 10 * time.Minute
	defaultCacheEmptyTTL = time.Minute

	defaultRateWindow       = 15 * time.Minute
	defaultRateMax          = 100
	defaultRateRedisTimeout = 200 * time.Millisecond

	storeDriverMongo  = "mongo"
	storeDriverMemory = "memory"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	BodyLimit       int64         `yaml:"bodyLimit"`
}

// StoreConfig selects and configures the problem store.
type StoreConfig struct {
	// Driver is "mongo" or "memory".
	Driver            string         `yaml:"driver"`
	Mongo             db.MongoConfig `yaml:"mongo"`
	Collection        string         `yaml:"collection"`
	CounterCollection string         `yaml:"counterCollection"`
	EnsureIndexes     *bool          `yaml:"ensureIndexes"`
}

// CacheConfig controls the problem detail cache. It needs redis.addr.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	EmptyTTL time.Duration `yaml:"emptyTTL"`
}

// RateLimitConfig limits requests per client IP. With redis.addr set the
// window is shared through Redis, otherwise it is kept per process.
type RateLimitConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Window       time.Duration `yaml:"window"`
	Max          int           `yaml:"max"`
	RedisTimeout time.Duration `yaml:"redisTimeout"`
}

// AuthConfig protects the write routes with HS256 bearer tokens.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Secret  string   `yaml:"secret"`
	Issuer  string   `yaml:"issuer"`
	Roles   []string `yaml:"roles"`
}

// KafkaConfig enables problem lifecycle events.
type KafkaConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Topic          string `yaml:"topic"`
	mq.KafkaConfig `yaml:",inline"`
}

// PaginationConfig bounds listing page sizes.
type PaginationConfig struct {
	MaxLimit int `yaml:"maxLimit"`
}

// AppConfig holds the problem-service configuration.
type AppConfig struct {
	Server     ServerConfig        `yaml:"server"`
	Logger     logger.Config       `yaml:"logger"`
	Store      StoreConfig         `yaml:"store"`
	Redis      cache.RedisConfig   `yaml:"redis"`
	Cache      CacheConfig         `yaml:"cache"`
	RateLimit  RateLimitConfig     `yaml:"rateLimit"`
	CORS       commonmw.CORSConfig `yaml:"cors"`
	Auth       AuthConfig          `yaml:"auth"`
	Kafka      KafkaConfig         `yaml:"kafka"`
	Pagination PaginationConfig    `yaml:"pagination"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads .env, the YAML file, environment overrides and defaults, in that order.
// A missing file is only accepted for the default path.
func loadAppConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}
	cfg := defaultAppConfig()
	if err := loadYAML(path, cfg); err != nil {
		if !(path == defaultConfigPath && errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}
	applyEnv(cfg, os.LookupEnv)
	applyDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultAppConfig holds the values that differ from the zero value and
// cannot be told apart from an explicit false in YAML.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{Driver: storeDriverMongo},
		Cache: CacheConfig{Enabled: true},
		RateLimit: RateLimitConfig{
			Enabled: true,
		},
		CORS: commonmw.CORSConfig{
			Enabled:          true,
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			ExposedHeaders:   []string{commonmw.TraceIDHeader, commonmw.RequestIDHeader},
			AllowCredentials: true,
			PreflightStatus:  200,
		},
	}
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup("MONGODB_URI"); ok && v != "" {
		cfg.Store.Mongo.URI = v
	}
	if v, ok := lookup("MONGODB_DATABASE"); ok && v != "" {
		cfg.Store.Mongo.Database = v
	}
	if v, ok := lookup("STORE_DRIVER"); ok && v != "" {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = "0.0.0.0:" + v
		}
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.Redis.Addr = strings.TrimSpace(v)
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		cfg.Auth.Secret = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Logger.Level = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = defaultBodyLimit
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = storeDriverMongo
	}
	mongoDefaults := db.DefaultMongoConfig()
	if cfg.Store.Mongo.URI == "" {
		cfg.Store.Mongo.URI = mongoDefaults.URI
	}
	if cfg.Store.Mongo.Database == "" {
		cfg.Store.Mongo.Database = mongoDefaults.Database
	}
	if cfg.Store.Mongo.ConnectTimeout == 0 {
		cfg.Store.Mongo.ConnectTimeout = mongoDefaults.ConnectTimeout
	}
	if cfg.Store.Mongo.MaxPoolSize == 0 {
		cfg.Store.Mongo.MaxPoolSize = mongoDefaults.MaxPoolSize
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = repository.DefaultProblemCollection
	}
	if cfg.Store.CounterCollection == "" {
		cfg.Store.CounterCollection = repository.DefaultCounterCollection
	}
	if cfg.Store.EnsureIndexes == nil {
		ensure := true
		cfg.Store.EnsureIndexes = &ensure
	}

	applyRedisDefaults(&cfg.Redis)

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Cache.EmptyTTL == 0 {
		cfg.Cache.EmptyTTL = defaultCacheEmptyTTL
	}

	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = defaultRateWindow
	}
	if cfg.RateLimit.Max == 0 {
		cfg.RateLimit.Max = defaultRateMax
	}
	if cfg.RateLimit.RedisTimeout == 0 {
		cfg.RateLimit.RedisTimeout = defaultRateRedisTimeout
	}

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = service.DefaultEventTopic
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = "problem-service"
	}
	if cfg.Kafka.DialTimeout == 0 {
		cfg.Kafka.DialTimeout = 10 * time.Second
	}

	if cfg.Pagination.MaxLimit <= 0 {
		cfg.Pagination.MaxLimit = validator.DefaultMaxLimit
	}
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	if cfg == nil {
		return
	}
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
}

func validateConfig(cfg *AppConfig) error {
	switch cfg.Store.Driver {
	case storeDriverMongo, storeDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth is enabled")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if cfg.RateLimit.Max < 0 {
		return fmt.Errorf("rateLimit.max must not be negative")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
