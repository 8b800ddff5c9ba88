package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds SQLite connection options
type Config struct {
	Path            string
	JournalMode     string // WAL, DELETE, ...
	SynchronousMode string // FULL, NORMAL, OFF
	BusyTimeout     int    // milliseconds
	ForeignKeys     bool
}

// DefaultConfig returns WAL mode with a 5s busy timeout
func DefaultConfig() *Config {
	return &Config{
		Path:            "bilimusic.db",
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		BusyTimeout:     5000,
		ForeignKeys:     true,
	}
}

// Validate checks the options before connecting
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
	default:
		return fmt.Errorf("invalid journal mode %q", c.JournalMode)
	}
	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronous mode %q", c.SynchronousMode)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}
	return nil
}

// IsInMemory reports whether the database lives in memory
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:" || strings.Contains(c.Path, "mode=memory")
}

// GetConnectionString builds the go-sqlite3 DSN
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	// Only ? and & would break query parsing
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}
