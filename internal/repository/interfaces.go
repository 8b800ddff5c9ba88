package repository

import (
	"context"
	"encoding/json"
	"time"

	"bilimusic/internal/types"
)

// SettingsRepository persists user settings as JSON values keyed by name
type SettingsRepository interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// LyricsRepository persists fetched lyrics per source and cache key
type LyricsRepository interface {
	Get(ctx context.Context, source types.LyricSource, key string) (string, error)
	Put(ctx context.Context, source types.LyricSource, key string, lyric string) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
