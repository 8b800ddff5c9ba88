package shell

import (
	"fmt"
	"sync"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
)

// Plugin extends the running application during setup
type Plugin interface {
	Name() string
	Attach(app *App) error
}

// App is the handle setup hooks and plugins operate on
type App struct {
	mu      sync.RWMutex
	logger  logging.Logger
	plugins []string
}

func newApp(logger logging.Logger) *App {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &App{logger: logger}
}

// Logger returns the application logger
func (a *App) Logger() logging.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// SetLogger replaces the application logger
func (a *App) SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// Plugin attaches p. A plugin name can only be attached once.
func (a *App) Plugin(p Plugin) error {
	if p == nil {
		return apperrors.NewAppError("plugin", fmt.Errorf("nil plugin"), apperrors.ErrCodePlugin)
	}

	name := p.Name()
	if a.HasPlugin(name) {
		return apperrors.NewAppErrorWithContext("plugin",
			fmt.Errorf("plugin already attached"),
			apperrors.ErrCodePlugin,
			map[string]string{"plugin": name})
	}

	if err := p.Attach(a); err != nil {
		return apperrors.NewAppErrorWithContext("plugin", err, apperrors.ErrCodePlugin,
			map[string]string{"plugin": name})
	}

	a.mu.Lock()
	a.plugins = append(a.plugins, name)
	a.mu.Unlock()

	a.Logger().Debug("Plugin attached", "plugin", name)
	return nil
}

// HasPlugin reports whether a plugin with name is attached
func (a *App) HasPlugin(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range a.plugins {
		if p == name {
			return true
		}
	}
	return false
}

// Plugins returns the attached plugin names in attach order
func (a *App) Plugins() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.plugins))
	copy(out, a.plugins)
	return out
}
