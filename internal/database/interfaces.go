package database

import (
	"context"
	"database/sql"
)

// Service abstracts connection management and migrations
type Service interface {
	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	DB() *sql.DB

	Migrate(ctx context.Context) error
	GetMigrationVersion(ctx context.Context) (int64, error)
}

// MigrationManager checks and applies the schema
type MigrationManager interface {
	Check() error
	Apply(ctx context.Context) error
	Version(ctx context.Context) (int64, error)
}
