package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"bilimusic/internal/database"
	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
)

// SQLiteSettingsRepository implements SettingsRepository on the settings table
type SQLiteSettingsRepository struct {
	db     *sql.DB
	logger logging.Logger
}

var _ SettingsRepository = (*SQLiteSettingsRepository)(nil)

// NewSQLiteSettingsRepository creates a settings repository over a connected service
func NewSQLiteSettingsRepository(dbService database.Service, logger logging.Logger) *SQLiteSettingsRepository {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &SQLiteSettingsRepository{db: dbService.DB(), logger: logger}
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.HandleNotFound("GetSetting", "setting", key)
	}
	if err != nil {
		return nil, apperrors.WrapDatabaseErrorWithContext("GetSetting", err, map[string]string{"key": key})
	}
	return json.RawMessage(value), nil
}

func (r *SQLiteSettingsRepository) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, apperrors.WrapDatabaseError("AllSettings", err)
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, apperrors.WrapDatabaseError("AllSettings", err)
		}
		result[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapDatabaseError("AllSettings", err)
	}
	return result, nil
}

func (r *SQLiteSettingsRepository) Put(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return apperrors.HandleValidationError("PutSetting", "key", key, "key is required")
	}
	if !json.Valid(value) {
		return apperrors.HandleValidationError("PutSetting", "value", string(value), "value must be JSON")
	}

	start := time.Now()
	err := apperrors.RetryQuick(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(value))
		return apperrors.WrapDatabaseErrorWithContext("PutSetting", err, map[string]string{"key": key})
	})
	if err != nil {
		return err
	}

	logging.LogOperation(r.logger, "put_setting", time.Since(start), map[string]interface{}{"key": key})
	return nil
}

func (r *SQLiteSettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return apperrors.WrapDatabaseErrorWithContext("DeleteSetting", err, map[string]string{"key": key})
	}
	return nil
}

func (r *SQLiteSettingsRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return apperrors.WrapDatabaseError("DeleteAllSettings", err)
	}
	return nil
}
