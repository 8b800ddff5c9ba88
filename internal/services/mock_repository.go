package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/repository"
	"bilimusic/internal/types"
)

// MockSettingsRepository wraps the memory repository with call counting and
// injectable failures for testing
type MockSettingsRepository struct {
	*repository.MemorySettingsRepository

	mu            sync.RWMutex
	putCallCount  int
	getCallCount  int
	shouldFailPut bool
	shouldFailGet bool
}

var _ repository.SettingsRepository = (*MockSettingsRepository)(nil)

// NewMockSettingsRepository creates a new mock settings repository
func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{MemorySettingsRepository: repository.NewMemorySettingsRepository()}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockSettingsRepository) SetFailureModes(get, put bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailGet = get
	m.shouldFailPut = put
}

// GetCallCounts returns the number of times Get and Put were called
func (m *MockSettingsRepository) GetCallCounts() (get, put int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCallCount, m.putCallCount
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	m.getCallCount++
	fail := m.shouldFailGet
	m.mu.Unlock()

	if fail {
		return nil, errors.NewAppError("GetSetting", fmt.Errorf("mock get failure"), errors.ErrCodeConnection)
	}
	return m.MemorySettingsRepository.Get(ctx, key)
}

func (m *MockSettingsRepository) Put(ctx context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	m.putCallCount++
	fail := m.shouldFailPut
	m.mu.Unlock()

	if fail {
		return errors.NewAppError("PutSetting", fmt.Errorf("mock put failure"), errors.ErrCodeConnection)
	}
	return m.MemorySettingsRepository.Put(ctx, key, value)
}

// MockLyricsRepository wraps the memory repository with call counting and
// injectable failures for testing
type MockLyricsRepository struct {
	*repository.MemoryLyricsRepository

	mu            sync.RWMutex
	getCallCount  int
	putCallCount  int
	shouldFailGet bool
	shouldFailPut bool
}

var _ repository.LyricsRepository = (*MockLyricsRepository)(nil)

// NewMockLyricsRepository creates a new mock lyrics repository
func NewMockLyricsRepository() *MockLyricsRepository {
	return &MockLyricsRepository{MemoryLyricsRepository: repository.NewMemoryLyricsRepository()}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockLyricsRepository) SetFailureModes(get, put bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailGet = get
	m.shouldFailPut = put
}

// GetCallCounts returns the number of times Get and Put were called
func (m *MockLyricsRepository) GetCallCounts() (get, put int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCallCount, m.putCallCount
}

func (m *MockLyricsRepository) Get(ctx context.Context, source types.LyricSource, key string) (string, error) {
	m.mu.Lock()
	m.getCallCount++
	fail := m.shouldFailGet
	m.mu.Unlock()

	if fail {
		return "", errors.NewAppError("GetLyric", fmt.Errorf("mock get failure"), errors.ErrCodeBusy)
	}
	return m.MemoryLyricsRepository.Get(ctx, source, key)
}

func (m *MockLyricsRepository) Put(ctx context.Context, source types.LyricSource, key string, lyric string) error {
	m.mu.Lock()
	m.putCallCount++
	fail := m.shouldFailPut
	m.mu.Unlock()

	if fail {
		return errors.NewAppError("PutLyric", fmt.Errorf("mock put failure"), errors.ErrCodeBusy)
	}
	return m.MemoryLyricsRepository.Put(ctx, source, key, lyric)
}

// Prune is forwarded unchanged; it exists so the mock documents the full interface
func (m *MockLyricsRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	return m.MemoryLyricsRepository.Prune(ctx, olderThan)
}
