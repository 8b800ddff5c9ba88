package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/repository"
)

// Setting keys referenced by other services
const (
	SettingLyricSource     = "lyricSource"
	SettingLyricSearchType = "lyricSearchType"
	SettingVideoQuality    = "videoQuality"
)

const defaultFontFallback = "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell"

// DefaultSettings holds the value of every known setting when nothing is stored
var DefaultSettings = map[string]interface{}{
	"theme":                "dark",
	"hideSidebar":          false,
	"hideTitbar":           false,
	"primaryColor":         "#ad6eca",
	"secondaryColor":       "#3b91d8",
	"micaOpacity":          0.5,
	"background":           "video",
	"autoMaximize":         false,
	"fontFamilyCustom":     "HarmonyOS_Sans",
	"lyricLineFontSize":    24,
	"lyricsEnabled":        true,
	SettingLyricSource:     "netease",
	"autoPlayOnStartup":    false,
	"loopLyricsEnabled":    true,
	"desktopLyricsEnabled": false,
	"fadeEnabled":          true,
	SettingLyricSearchType: "custom",
	"extractTitle":         "auto",
	SettingVideoQuality:    64,
	"cacheEnabled":         false,
	"fontFamilyFallback":   defaultFontFallback,
	"devToolsEnabled":      false,
	"volume":               50,
}

var (
	videoQualities = []float64{16, 32, 64, 74, 80, 112, 116, 120, 125, 126, 127}

	enumSettings = map[string][]string{
		"theme":                {"dark", "light"},
		SettingLyricSource:     {"netease", "bilibili"},
		SettingLyricSearchType: {"auto", "custom"},
	}

	rangeSettings = map[string][2]float64{
		"volume":      {0, 100},
		"micaOpacity": {0, 1},
	}
)

// SettingsChangeFunc is called after a setting was stored
type SettingsChangeFunc func(key string, value json.RawMessage)

// SettingsService layers defaults and validation over a SettingsRepository
type SettingsService struct {
	repo   repository.SettingsRepository
	logger logging.Logger

	mu          sync.RWMutex
	subscribers []SettingsChangeFunc
}

// NewSettingsService creates a settings service backed by repo
func NewSettingsService(repo repository.SettingsRepository, logger logging.Logger) *SettingsService {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &SettingsService{repo: repo, logger: logger}
}

// OnChange registers fn to run after every successful Set
func (s *SettingsService) OnChange(fn SettingsChangeFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Keys returns every known setting name in sorted order
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(DefaultSettings))
	for k := range DefaultSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored value for key, or its default
func (s *SettingsService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	def, ok := DefaultSettings[key]
	if !ok {
		return nil, apperrors.HandleValidationError("GetSetting", "key", key, "unknown setting")
	}

	value, err := s.repo.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}
	return mustMarshal(def), nil
}

// All merges stored values over the defaults. Stored keys that are no
// longer known are dropped.
func (s *SettingsService) All(ctx context.Context) (map[string]json.RawMessage, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]json.RawMessage, len(DefaultSettings))
	for k, def := range DefaultSettings {
		if v, ok := stored[k]; ok {
			result[k] = v
			continue
		}
		result[k] = mustMarshal(def)
	}
	return result, nil
}

// Set validates value against the setting's default and persists it
func (s *SettingsService) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := ValidateSetting(key, value); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, key, value); err != nil {
		return err
	}

	s.logger.Debug("Setting updated", "key", key, "value", string(value))

	s.mu.RLock()
	subscribers := slices.Clone(s.subscribers)
	s.mu.RUnlock()
	for _, fn := range subscribers {
		fn(key, value)
	}
	return nil
}

// Reset removes every stored value so that defaults apply again
func (s *SettingsService) Reset(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Info("Settings reset to defaults")
	return nil
}

// String returns a string setting, falling back to the default on any error
func (s *SettingsService) String(ctx context.Context, key string) string {
	var out string
	if raw, err := s.Get(ctx, key); err == nil && json.Unmarshal(raw, &out) == nil {
		return out
	}
	out, _ = DefaultSettings[key].(string)
	return out
}

// Int returns a numeric setting, falling back to the default on any error
func (s *SettingsService) Int(ctx context.Context, key string) int {
	var out float64
	if raw, err := s.Get(ctx, key); err == nil && json.Unmarshal(raw, &out) == nil {
		return int(out)
	}
	def, _ := DefaultSettings[key].(int)
	return def
}

// ValidateSetting checks that key is known and value has the default's JSON
// type and lies within the allowed values for that key
func ValidateSetting(key string, value json.RawMessage) error {
	def, ok := DefaultSettings[key]
	if !ok {
		return apperrors.HandleValidationError("SetSetting", "key", key, "unknown setting")
	}

	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return apperrors.HandleValidationError("SetSetting", key, string(value), "value must be JSON")
	}

	invalid := func(reason string) error {
		return apperrors.HandleValidationError("SetSetting", key, string(value), reason)
	}

	switch def.(type) {
	case string:
		str, ok := decoded.(string)
		if !ok {
			return invalid("expected a string")
		}
		if allowed, ok := enumSettings[key]; ok && !slices.Contains(allowed, str) {
			return invalid(fmt.Sprintf("must be one of %v", allowed))
		}
	case bool:
		if _, ok := decoded.(bool); !ok {
			return invalid("expected a boolean")
		}
	case int, float64:
		num, ok := decoded.(float64)
		if !ok {
			return invalid("expected a number")
		}
		if key == SettingVideoQuality && !slices.Contains(videoQualities, num) {
			return invalid(fmt.Sprintf("must be one of %v", videoQualities))
		}
		if bounds, ok := rangeSettings[key]; ok && (num < bounds[0] || num > bounds[1]) {
			return invalid(fmt.Sprintf("must be between %v and %v", bounds[0], bounds[1]))
		}
	}
	return nil
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal default setting: %v", err))
	}
	return b
}
