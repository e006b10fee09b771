package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds the configuration for the MongoDB client pool
type MongoConfig struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017"
	URI string `yaml:"uri"`

	// Database is the database holding the catalog
	Database string `yaml:"database"`

	// ConnectTimeout bounds connect and the initial ping
	// Default: 10 seconds
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// MaxPoolSize is the maximum number of pooled connections
	// Default: 50
	MaxPoolSize uint64 `yaml:"maxPoolSize"`

	// MinPoolSize is the number of connections kept open when idle
	MinPoolSize uint64 `yaml:"minPoolSize"`
}

// DefaultMongoConfig returns the default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "leetcode",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
	}
}

// Mongo wraps a connected client and the configured database.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
	config   *MongoConfig
}

// NewMongoWithConfig connects to MongoDB and verifies the connection with a ping.
func NewMongoWithConfig(ctx context.Context, config *MongoConfig) (*Mongo, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("URI cannot be empty")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.MaxPoolSize == 0 {
		config.MaxPoolSize = 50
	}

	opts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ConnectTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Mongo{client: client, database: client.Database(config.Database), config: config}, nil
}

// Database returns the configured database handle.
func (m *Mongo) Database() *mongo.Database {
	return m.database
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
