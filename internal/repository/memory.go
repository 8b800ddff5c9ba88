package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/types"
)

// MemorySettingsRepository keeps settings in memory. It backs the app when
// the database is unavailable and is used in tests.
type MemorySettingsRepository struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

var _ SettingsRepository = (*MemorySettingsRepository)(nil)

func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{values: make(map[string]json.RawMessage)}
}

func (m *MemorySettingsRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, apperrors.HandleNotFound("GetSetting", "setting", key)
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *MemorySettingsRepository) All(ctx context.Context) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(m.values))
	for k, v := range m.values {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (m *MemorySettingsRepository) Put(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return apperrors.HandleValidationError("PutSetting", "key", key, "key is required")
	}
	if !json.Valid(value) {
		return apperrors.HandleValidationError("PutSetting", "value", string(value), "value must be JSON")
	}
	m.mu.Lock()
	m.values[key] = append(json.RawMessage(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemorySettingsRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *MemorySettingsRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	m.values = make(map[string]json.RawMessage)
	m.mu.Unlock()
	return nil
}

type memoryLyric struct {
	lyric   string
	created time.Time
}

// MemoryLyricsRepository keeps cached lyrics in memory
type MemoryLyricsRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryLyric
	now     func() time.Time
}

var _ LyricsRepository = (*MemoryLyricsRepository)(nil)

func NewMemoryLyricsRepository() *MemoryLyricsRepository {
	return &MemoryLyricsRepository{entries: make(map[string]memoryLyric), now: time.Now}
}

func lyricKey(source types.LyricSource, key string) string {
	return string(source) + "\x00" + key
}

func (m *MemoryLyricsRepository) Get(ctx context.Context, source types.LyricSource, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[lyricKey(source, key)]
	if !ok {
		return "", apperrors.HandleNotFound("GetLyric", string(source), key)
	}
	return e.lyric, nil
}

func (m *MemoryLyricsRepository) Put(ctx context.Context, source types.LyricSource, key string, lyric string) error {
	if key == "" {
		return apperrors.HandleValidationError("PutLyric", "key", key, "cache key is required")
	}
	m.mu.Lock()
	m.entries[lyricKey(source, key)] = memoryLyric{lyric: lyric, created: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryLyricsRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if e.created.Before(olderThan) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}
