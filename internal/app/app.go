package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bilimusic/internal/config"
	"bilimusic/internal/database"
	"bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/repository"
	"bilimusic/internal/services"
	"bilimusic/internal/types"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	// SettingsChangedEvent carries {key, value} after a setting is stored
	SettingsChangedEvent = "settings:changed"

	lyricsCacheMaxAge = 30 * 24 * time.Hour
	storageTimeout    = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// EmitFunc sends an event to the front end
type EmitFunc func(ctx context.Context, name string, data ...interface{})

// App is bound to the front end and owns the music services
type App struct {
	ctx       context.Context
	cfg       *config.Config
	logger    logging.Logger
	emit      EmitFunc
	dbService database.Service

	bilibili *services.BilibiliClient
	netease  *services.NeteaseClient

	mu       sync.RWMutex
	settings *services.SettingsService
	lyrics   *services.LyricsService
	player   *services.PlayerService
	degraded bool
}

// NewApp creates the application. Storage is opened in Startup.
func NewApp(cfg *config.Config, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		emit:      runtime.EventsEmit,
		dbService: database.NewSQLiteService(logger),
		bilibili: services.NewBilibiliClient(services.BilibiliConfig{
			APIBase:    cfg.Bilibili.APIBase,
			SearchBase: cfg.Bilibili.SearchBase,
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    cfg.HTTP.Timeout,
		}, logger),
		netease: services.NewNeteaseClient(services.NeteaseConfig{
			APIBase:   cfg.Netease.APIBase,
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.HTTP.Timeout,
		}, logger),
	}
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	settingsRepo, lyricsRepo, err := a.initializeStorage(ctx)
	if err != nil {
		logging.LogError(a.logger, err, "startup", map[string]interface{}{"db_path": a.cfg.Database.Path})
		a.logger.Warn("Continuing without database persistence, settings and lyrics are kept in memory")
		settingsRepo = repository.NewMemorySettingsRepository()
		lyricsRepo = repository.NewMemoryLyricsRepository()
	}

	settings := services.NewSettingsService(settingsRepo, a.logger)
	settings.OnChange(func(key string, value json.RawMessage) {
		a.emit(ctx, SettingsChangedEvent, map[string]interface{}{
			"key":   key,
			"value": value,
		})
	})
	lyrics := services.NewLyricsService(a.bilibili, a.netease, settings, lyricsRepo, a.logger)
	player := services.NewPlayerService(a.bilibili, lyrics, settings, a.logger)

	a.mu.Lock()
	a.ctx = ctx
	a.settings = settings
	a.lyrics = lyrics
	a.player = player
	a.degraded = err != nil
	a.mu.Unlock()

	if err == nil {
		pruneCtx, cancel := context.WithTimeout(ctx, storageTimeout)
		if n, err := lyrics.PruneCache(pruneCtx, lyricsCacheMaxAge); err != nil {
			logging.LogError(a.logger, err, "prune_lyrics", nil)
		} else if n > 0 {
			a.logger.Debug("Expired lyrics removed", "count", n)
		}
		cancel()
	}

	a.logger.Info("Application started", "persistent", err == nil)
}

// initializeStorage connects and migrates the database
func (a *App) initializeStorage(ctx context.Context) (repository.SettingsRepository, repository.LyricsRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	dbConfig := database.DefaultConfig()
	dbConfig.Path = a.cfg.Database.Path
	if a.cfg.Database.BusyTimeoutMs > 0 {
		dbConfig.BusyTimeout = a.cfg.Database.BusyTimeoutMs
	}

	if err := a.dbService.Connect(ctx, dbConfig); err != nil {
		return nil, nil, err
	}
	if err := a.dbService.Migrate(ctx); err != nil {
		a.dbService.Close()
		return nil, nil, errors.NewAppErrorWithContext("startup", err, errors.ClassifyError(err), map[string]string{
			"operation": "migrate",
			"db_path":   dbConfig.Path,
		})
	}
	if err := a.dbService.Health(ctx); err != nil {
		a.dbService.Close()
		return nil, nil, err
	}
	if version, err := a.dbService.GetMigrationVersion(ctx); err == nil {
		a.logger.Info("Storage ready", "path", dbConfig.Path, "schema_version", version)
	}

	return repository.NewSQLiteSettingsRepository(a.dbService, a.logger),
		repository.NewSQLiteLyricsRepository(a.dbService, a.logger),
		nil
}

// Shutdown is called at application termination
func (a *App) Shutdown(ctx context.Context) {
	a.mu.RLock()
	degraded := a.degraded
	a.mu.RUnlock()
	if degraded {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logging.LogError(a.logger, err, "shutdown", nil)
			return
		}
		a.logger.Info("Database connection closed")
	case <-ctx.Done():
		a.logger.Warn("Timed out closing database connection")
	}
}

// IsPersistent reports whether settings and lyrics are stored on disk
func (a *App) IsPersistent() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings != nil && !a.degraded
}

func (a *App) ready() (*services.SettingsService, *services.LyricsService, *services.PlayerService, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.settings == nil {
		return nil, nil, nil, errors.HandleConnectionError("app", "application has not started")
	}
	return a.settings, a.lyrics, a.player, nil
}

func (a *App) callContext() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// SearchVideos searches Bilibili videos
func (a *App) SearchVideos(keyword string, page int, order string, duration int, tids int) ([]types.VideoResult, error) {
	results, err := a.bilibili.SearchVideos(a.callContext(), keyword, services.SearchOptions{
		Page:     page,
		Order:    order,
		Duration: duration,
		Tids:     tids,
	})
	if err != nil {
		logging.LogError(a.logger, err, "SearchVideos", map[string]interface{}{"keyword": keyword})
		return nil, err
	}
	return results, nil
}

// SearchSuggestions returns search-box completions
func (a *App) SearchSuggestions(term string) []types.Suggestion {
	return a.bilibili.Suggestions(a.callContext(), term)
}

// LoadSong resolves a search result into a playable song
func (a *App) LoadSong(bvid string, keyword string) (*types.Song, error) {
	_, _, player, err := a.ready()
	if err != nil {
		return nil, err
	}
	song, err := player.LoadSong(a.callContext(), bvid, keyword)
	if err != nil {
		logging.LogError(a.logger, err, "LoadSong", map[string]interface{}{"bvid": bvid})
		return nil, err
	}
	return song, nil
}

// LoadLink resolves a pasted link or id into a playable song
func (a *App) LoadLink(link string) (*types.Song, error) {
	_, _, player, err := a.ready()
	if err != nil {
		return nil, err
	}
	song, err := player.LoadLink(a.callContext(), link)
	if err != nil {
		logging.LogError(a.logger, err, "LoadLink", map[string]interface{}{"link": link})
		return nil, err
	}
	return song, nil
}

// IsBilibiliLink lets the search box decide between searching and loading
func (a *App) IsBilibiliLink(text string) bool {
	return services.IsBilibiliLink(text)
}

// GetLyrics never fails; the placeholder text is returned when nothing is found
func (a *App) GetLyrics(req types.LyricRequest) string {
	_, lyrics, _, err := a.ready()
	if err != nil {
		return types.NoLyrics
	}
	return lyrics.GetLyrics(a.callContext(), req)
}

// GetSettings returns every setting with defaults applied
func (a *App) GetSettings() (map[string]interface{}, error) {
	settings, _, _, err := a.ready()
	if err != nil {
		return nil, err
	}

	raw, err := settings.All(a.callContext())
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, errors.NewAppErrorWithContext("GetSettings", err, errors.ErrCodeCorruption, map[string]string{"key": k})
		}
		out[k] = decoded
	}
	return out, nil
}

// GetSetting returns one setting or its default
func (a *App) GetSetting(key string) (interface{}, error) {
	settings, _, _, err := a.ready()
	if err != nil {
		return nil, err
	}

	raw, err := settings.Get(a.callContext(), key)
	if err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.NewAppErrorWithContext("GetSetting", err, errors.ErrCodeCorruption, map[string]string{"key": key})
	}
	return decoded, nil
}

// SetSetting validates and stores a setting, then emits SettingsChangedEvent
func (a *App) SetSetting(key string, value interface{}) error {
	settings, _, _, err := a.ready()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.HandleValidationError("SetSetting", key, fmt.Sprintf("%v", value), "value is not serializable")
	}
	return settings.Set(a.callContext(), key, raw)
}

// ResetSettings restores every default
func (a *App) ResetSettings() error {
	settings, _, _, err := a.ready()
	if err != nil {
		return err
	}
	return settings.Reset(a.callContext())
}
