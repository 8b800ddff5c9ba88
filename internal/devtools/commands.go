package devtools

import (
	"context"
	"sync"

	"bilimusic/internal/infrastructure/logging"
)

// Commands is bound to the front end. OpenDevtools is invoked on F12.
type Commands struct {
	debug  bool
	logger logging.Logger

	mu        sync.RWMutex
	window    Window
	newWindow func(ctx context.Context) Window
}

// NewCommands creates the handler. debug is normally buildmode.Debug.
func NewCommands(debug bool, logger logging.Logger) *Commands {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Commands{
		debug:  debug,
		logger: logger,
		newWindow: func(ctx context.Context) Window {
			return NewWailsWindow(ctx)
		},
	}
}

// Startup captures the active window from the host startup context
func (c *Commands) Startup(ctx context.Context) {
	c.mu.Lock()
	c.window = c.newWindow(ctx)
	c.mu.Unlock()
}

// OpenDevtools toggles the devtools panel of the active window.
// It is a no-op in release builds.
func (c *Commands) OpenDevtools() {
	if !c.debug {
		return
	}

	c.mu.RLock()
	w := c.window
	c.mu.RUnlock()

	if w == nil {
		c.logger.Warn("Devtools toggle requested before the window was ready")
		return
	}

	Toggle(w, c.debug)
	c.logger.Debug("Devtools toggled", "open", w.IsDevtoolsOpen())
}
