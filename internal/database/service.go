package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService implements Service for SQLite.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, use DB(), Close.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrator MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &SQLiteService{logger: logger}
}

// Connect opens the database, replacing any existing connection
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return apperrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrator = nil
	}

	if !config.IsInMemory() {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return apperrors.WrapDatabaseErrorWithContext("Connect", err, map[string]string{
					"phase": "mkdir",
					"dir":   dir,
				})
			}
		}
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return apperrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return apperrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	migrator, err := NewSchemaMigrator(db, s.logger)
	if err != nil {
		db.Close()
		return apperrors.WrapDatabaseErrorWithContext("Connect", err, map[string]string{"phase": "migrations"})
	}

	s.db = db
	s.migrator = migrator

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return apperrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}

	s.db = nil
	s.migrator = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate validates and applies the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return apperrors.HandleConnectionError("Migrate", "database not connected")
	}

	if err := s.migrator.Check(); err != nil {
		return apperrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "validation",
		})
	}

	if err := s.migrator.Apply(ctx); err != nil {
		return apperrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}
	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return apperrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{"phase": "ping"})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return apperrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{"phase": "query"})
	}
	if result != 1 {
		return apperrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}
	return nil
}

// DB returns the underlying connection for repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, apperrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}

	version, err := s.migrator.Version(ctx)
	if err != nil {
		return 0, apperrors.WrapDatabaseError("GetMigrationVersion", err)
	}
	return version, nil
}

// configureConnectionPool keeps SQLite to one writer; WAL allows a few readers
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.IsInMemory() || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
}
