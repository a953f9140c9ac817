package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/storage/arango"
	"github.com/platinummonkey/codehub/pkg/storage/postgres"
)

// Config for storage backend
type Config struct {
	Type string `yaml:"type"` // "memory", "postgres", "arango"

	// PostgreSQL config
	PostgresURL      string        `yaml:"postgres_url"`
	PostgresMaxConns int           `yaml:"postgres_max_conns"`
	PostgresMinConns int           `yaml:"postgres_min_conns"`
	PostgresTimeout  time.Duration `yaml:"postgres_timeout"`

	// ArangoDB config
	ArangoURL      string `yaml:"arango_url"`
	ArangoUser     string `yaml:"arango_user"`
	ArangoPassword string `yaml:"arango_password"`
	ArangoDatabase string `yaml:"arango_database"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:             "memory",
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		ArangoUser:       "root",
		ArangoDatabase:   "codehub",
	}
}

// Open connects to the configured backend and ensures its schema exists
func Open(ctx context.Context, cfg Config) (auth.UserStore, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil

	case "postgres":
		return postgres.NewUserStore(ctx, postgres.ConnectionConfig{
			URL:         cfg.PostgresURL,
			MaxConns:    cfg.PostgresMaxConns,
			MinConns:    cfg.PostgresMinConns,
			Timeout:     cfg.PostgresTimeout,
			MaxLifetime: 30 * time.Minute,
			MaxIdleTime: 5 * time.Minute,
		})

	case "arango":
		return arango.NewUserStore(ctx, arango.Config{
			URL:      cfg.ArangoURL,
			User:     cfg.ArangoUser,
			Password: cfg.ArangoPassword,
			Database: cfg.ArangoDatabase,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
