// Package logplugin attaches a level-filtered zerolog logger to the
// application during setup.
package logplugin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/shell"

	"github.com/rs/zerolog"
)

// Name identifies the plugin on the shell.App
const Name = "log"

// Target is a destination for log output
type Target struct {
	kind string
	dir  string
	file string
	w    io.Writer
}

// Stdout writes to the process stdout
func Stdout() Target { return Target{kind: "stdout"} }

// LogDir appends to dir/file, creating dir when needed
func LogDir(dir, file string) Target { return Target{kind: "dir", dir: dir, file: file} }

// Writer writes to an arbitrary writer
func Writer(w io.Writer) Target { return Target{kind: "writer", w: w} }

// Builder configures the plugin
type Builder struct {
	level   zerolog.Level
	format  string
	targets []Target
}

// NewBuilder defaults to info level, JSON, stdout
func NewBuilder() *Builder {
	return &Builder{level: zerolog.InfoLevel, format: "json"}
}

// Level sets the minimum severity
func (b *Builder) Level(level zerolog.Level) *Builder {
	b.level = level
	return b
}

// Format selects "json" or "console"
func (b *Builder) Format(format string) *Builder {
	b.format = format
	return b
}

// Target adds an output destination
func (b *Builder) Target(t Target) *Builder {
	b.targets = append(b.targets, t)
	return b
}

// Build returns the plugin
func (b *Builder) Build() *Plugin {
	targets := append([]Target(nil), b.targets...)
	if len(targets) == 0 {
		targets = []Target{Stdout()}
	}
	return &Plugin{level: b.level, format: b.format, targets: targets}
}

// Plugin implements shell.Plugin
type Plugin struct {
	level   zerolog.Level
	format  string
	targets []Target

	mu    sync.Mutex
	files []*os.File
}

var _ shell.Plugin = (*Plugin)(nil)

func (p *Plugin) Name() string { return Name }

// Level returns the configured minimum severity
func (p *Plugin) Level() zerolog.Level { return p.level }

// Attach opens every target and installs the logger on app.
// Files opened before a failing target are closed again.
func (p *Plugin) Attach(app *shell.App) error {
	writers := make([]io.Writer, 0, len(p.targets))
	var opened []*os.File

	for _, t := range p.targets {
		w, f, err := openTarget(t)
		if err != nil {
			for _, f := range opened {
				f.Close()
			}
			return err
		}
		if f != nil {
			opened = append(opened, f)
		}
		writers = append(writers, w)
	}

	p.mu.Lock()
	p.files = append(p.files, opened...)
	p.mu.Unlock()

	logger := logging.New(logging.Config{
		Level:      p.level,
		Format:     p.format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
		Writers:    writers,
	})
	app.SetLogger(logger)
	logger.Info("Log plugin attached", "level", p.level.String(), "targets", len(writers))
	return nil
}

// Close releases log files opened by Attach
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, f := range p.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.files = nil
	return firstErr
}

func openTarget(t Target) (io.Writer, *os.File, error) {
	switch t.kind {
	case "stdout":
		return os.Stdout, nil, nil
	case "writer":
		if t.w == nil {
			return nil, nil, fmt.Errorf("log target writer is nil")
		}
		return t.w, nil, nil
	case "dir":
		if t.dir == "" || t.file == "" {
			return nil, nil, fmt.Errorf("log directory target needs a directory and a file name")
		}
		if err := os.MkdirAll(t.dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(t.dir, t.file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unknown log target %q", t.kind)
	}
}
