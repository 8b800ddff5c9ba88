// Package config loads runtime configuration with viper.
//
// The debug/release switch is not configuration; see package buildmode.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config and data directories
const AppName = "bilimusic"

// EnvPrefix prefixes environment overrides, e.g. BILIMUSIC_DATABASE_PATH
const EnvPrefix = "BILIMUSIC"

// Config is the complete runtime configuration
type Config struct {
	Window   WindowConfig   `mapstructure:"window"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Bilibili BilibiliConfig `mapstructure:"bilibili"`
	Netease  NeteaseConfig  `mapstructure:"netease"`
}

type WindowConfig struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	MinWidth  int    `mapstructure:"min_width"`
	MinHeight int    `mapstructure:"min_height"`
	Frameless bool   `mapstructure:"frameless"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMs int    `mapstructure:"busy_timeout_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Dir is where the debug log plugin writes; empty means stdout only
	Dir string `mapstructure:"dir"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type BilibiliConfig struct {
	APIBase    string `mapstructure:"api_base"`
	SearchBase string `mapstructure:"search_base"`
}

type NeteaseConfig struct {
	APIBase string `mapstructure:"api_base"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("window.title", "BiliMusic")
	v.SetDefault("window.width", 1200)
	v.SetDefault("window.height", 800)
	v.SetDefault("window.min_width", 960)
	v.SetDefault("window.min_height", 640)
	v.SetDefault("window.frameless", true)

	v.SetDefault("database.path", filepath.Join(dataDir, "bilimusic.db"))
	v.SetDefault("database.busy_timeout_ms", 5000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.dir", "")

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.user_agent", defaultUserAgent)

	v.SetDefault("bilibili.api_base", "https://api.bilibili.com")
	v.SetDefault("bilibili.search_base", "https://s.search.bilibili.com")
	v.SetDefault("netease.api_base", "https://music.163.com")
}

// Load reads config.toml from path, or from the user config directory and
// the working directory when path is empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	setDefaults(v, dataDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the application cannot start with
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		return fmt.Errorf("window minimum size exceeds window size")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.Bilibili.APIBase == "" || c.Netease.APIBase == "" {
		return fmt.Errorf("api base URLs are required")
	}
	return nil
}

// DataDir returns the per-user data directory for the application
func DataDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_DATA_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine data directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}
