package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"bilimusic/internal/infrastructure/logging"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SchemaMigrator applies the embedded SQL files through a goose provider
type SchemaMigrator struct {
	provider *goose.Provider
	logger   logging.Logger
}

var _ MigrationManager = (*SchemaMigrator)(nil)

// NewSchemaMigrator binds the embedded migrations to db
func NewSchemaMigrator(db *sql.DB, logger logging.Logger) (*SchemaMigrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	sources, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sources)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &SchemaMigrator{provider: provider, logger: logger}, nil
}

// Sources lists the embedded migration versions in order
func (m *SchemaMigrator) Sources() []int64 {
	list := m.provider.ListSources()
	versions := make([]int64, 0, len(list))
	for _, src := range list {
		versions = append(versions, src.Version)
	}
	return versions
}

// Check verifies the embedded set is non-empty and strictly increasing
func (m *SchemaMigrator) Check() error {
	versions := m.Sources()
	if len(versions) == 0 {
		return fmt.Errorf("no embedded migrations")
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			return fmt.Errorf("migration %d is out of order after %d", versions[i], versions[i-1])
		}
	}
	m.logger.Debug("Embedded migrations", "count", len(versions), "latest", versions[len(versions)-1])
	return nil
}

// Apply runs every pending migration and logs each one applied
func (m *SchemaMigrator) Apply(ctx context.Context) error {
	pending, err := m.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("check pending migrations: %w", err)
	}
	if !pending {
		return nil
	}

	results, err := m.provider.Up(ctx)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		m.logger.Info("Applied migration", "version", r.Source.Version, "file", r.Source.Path, "duration_ms", r.Duration.Milliseconds())
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Version reports the highest applied migration
func (m *SchemaMigrator) Version(ctx context.Context) (int64, error) {
	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
