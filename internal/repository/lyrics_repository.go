package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bilimusic/internal/database"
	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/types"
)

// SQLiteLyricsRepository implements LyricsRepository on the lyrics_cache table
type SQLiteLyricsRepository struct {
	db     *sql.DB
	logger logging.Logger
}

var _ LyricsRepository = (*SQLiteLyricsRepository)(nil)

// NewSQLiteLyricsRepository creates a lyrics repository over a connected service
func NewSQLiteLyricsRepository(dbService database.Service, logger logging.Logger) *SQLiteLyricsRepository {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &SQLiteLyricsRepository{db: dbService.DB(), logger: logger}
}

func (r *SQLiteLyricsRepository) Get(ctx context.Context, source types.LyricSource, key string) (string, error) {
	var lyric string
	err := r.db.QueryRowContext(ctx,
		"SELECT lyric FROM lyrics_cache WHERE source = ? AND cache_key = ?",
		string(source), key).Scan(&lyric)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.HandleNotFound("GetLyric", string(source), key)
	}
	if err != nil {
		return "", apperrors.WrapDatabaseErrorWithContext("GetLyric", err, map[string]string{
			"source": string(source),
			"key":    key,
		})
	}
	return lyric, nil
}

func (r *SQLiteLyricsRepository) Put(ctx context.Context, source types.LyricSource, key string, lyric string) error {
	if key == "" {
		return apperrors.HandleValidationError("PutLyric", "key", key, "cache key is required")
	}

	return apperrors.RetryQuick(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO lyrics_cache (source, cache_key, lyric, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(source, cache_key) DO UPDATE SET lyric = excluded.lyric, created_at = excluded.created_at`,
			string(source), key, lyric)
		return apperrors.WrapDatabaseErrorWithContext("PutLyric", err, map[string]string{
			"source": string(source),
			"key":    key,
		})
	})
}

// Prune deletes entries created before olderThan and returns how many were removed
func (r *SQLiteLyricsRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM lyrics_cache WHERE created_at < ?",
		olderThan.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, apperrors.WrapDatabaseError("PruneLyrics", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.WrapDatabaseError("PruneLyrics", err)
	}
	if n > 0 {
		r.logger.Info("Pruned cached lyrics", "count", n)
	}
	return n, nil
}
