package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "bilimusic/internal/infrastructure/errors"
)

func newTestService(t *testing.T) *SQLiteService {
	t.Helper()
	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "nested", "test.db")

	service := NewSQLiteService(nil)
	if err := service.Connect(context.Background(), config); err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { service.Close() })
	return service
}

func TestSQLiteService_Connect(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	if err := service.Health(context.Background()); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	if _, err := os.Stat(service.config.Path); err != nil {
		t.Fatalf("Database file was not created: %v", err)
	}
}

func TestSQLiteService_Migrate(t *testing.T) {
	t.Parallel()
	service := newTestService(t)
	ctx := context.Background()

	if err := service.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	for _, table := range []string{"settings", "lyrics_cache"} {
		var n int
		if err := service.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Errorf("%s table was not created: %v", table, err)
		}
	}

	version, err := service.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("GetMigrationVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("Expected migration version 2, got %d", version)
	}

	// Running again is a no-op
	if err := service.Migrate(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestSQLiteService_SettingsValueMustBeJSON(t *testing.T) {
	t.Parallel()
	service := newTestService(t)
	ctx := context.Background()
	if err := service.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	_, err := service.DB().ExecContext(ctx, "INSERT INTO settings (key, value) VALUES ('theme', 'not json')")
	if err == nil {
		t.Fatal("Expected CHECK constraint violation")
	}
	if code := apperrors.ClassifyError(err); code != apperrors.ErrCodeConstraint {
		t.Errorf("Expected CONSTRAINT, got %v", code)
	}
}

func TestSQLiteService_NotConnected(t *testing.T) {
	t.Parallel()
	service := NewSQLiteService(nil)
	ctx := context.Background()

	if err := service.Health(ctx); !apperrors.IsConnection(err) {
		t.Errorf("Expected connection error from Health, got %v", err)
	}
	if err := service.Migrate(ctx); !apperrors.IsConnection(err) {
		t.Errorf("Expected connection error from Migrate, got %v", err)
	}
	if _, err := service.GetMigrationVersion(ctx); !apperrors.IsConnection(err) {
		t.Errorf("Expected connection error from GetMigrationVersion, got %v", err)
	}
	if err := service.Close(); err != nil {
		t.Errorf("Close() on unconnected service should be nil, got %v", err)
	}
}

func TestSQLiteService_InvalidConfig(t *testing.T) {
	t.Parallel()
	config := DefaultConfig()
	config.JournalMode = "BOGUS"

	err := NewSQLiteService(nil).Connect(context.Background(), config)
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestSchemaMigrator_Sources(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	migrator, err := NewSchemaMigrator(service.DB(), nil)
	if err != nil {
		t.Fatalf("NewSchemaMigrator() error = %v", err)
	}
	if err := migrator.Check(); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	got := migrator.Sources()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Sources() = %v, want [1 2]", got)
	}

	if _, err := NewSchemaMigrator(nil, nil); err == nil {
		t.Error("Expected error for nil connection")
	}
}
