// Package shell builds the desktop application: it registers command
// handlers, runs setup hooks and hands control to the host run loop.
package shell

import (
	"context"
	"fmt"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
)

// SetupHook runs once before the host run loop starts. A non-nil error
// aborts startup.
type SetupHook func(app *App) error

// Runner owns the host run loop. Run blocks for the lifetime of the
// application.
type Runner interface {
	Run(spec *RunSpec) error
}

// RunSpec is everything a Runner needs to start the host
type RunSpec struct {
	App        *App
	Handlers   []interface{}
	OnStartup  func(ctx context.Context)
	OnShutdown func(ctx context.Context)
}

type startupHandler interface {
	Startup(ctx context.Context)
}

type shutdownHandler interface {
	Shutdown(ctx context.Context)
}

// Builder assembles the application before it runs
type Builder struct {
	handlers []interface{}
	hooks    []SetupHook
	logger   logging.Logger
}

// Default returns an empty builder
func Default() *Builder {
	return &Builder{}
}

// WithLogger sets the logger the App starts with. Plugins may replace it.
func (b *Builder) WithLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// Invoke registers command handlers whose exported methods the front end can call
func (b *Builder) Invoke(handlers ...interface{}) *Builder {
	for _, h := range handlers {
		if h != nil {
			b.handlers = append(b.handlers, h)
		}
	}
	return b
}

// Setup installs a setup hook. Hooks run in registration order.
func (b *Builder) Setup(hook SetupHook) *Builder {
	if hook != nil {
		b.hooks = append(b.hooks, hook)
	}
	return b
}

// Handlers returns the registered command handlers
func (b *Builder) Handlers() []interface{} {
	out := make([]interface{}, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// Run executes the setup hooks and then hands control to runner.
// Any failure is returned as a fatal *errors.AppError and the runner is
// never started after a failed hook.
func (b *Builder) Run(runner Runner) error {
	app := newApp(b.logger)

	for i, hook := range b.hooks {
		if err := hook(app); err != nil {
			return apperrors.NewAppErrorWithContext("setup", err, apperrors.ErrCodeSetup, map[string]string{
				"hook": fmt.Sprintf("%d", i),
			})
		}
	}

	if runner == nil {
		return apperrors.NewAppError("run", fmt.Errorf("no runner configured"), apperrors.ErrCodeRun)
	}

	handlers := b.Handlers()
	spec := &RunSpec{
		App:      app,
		Handlers: handlers,
		OnStartup: func(ctx context.Context) {
			for _, h := range handlers {
				if s, ok := h.(startupHandler); ok {
					s.Startup(ctx)
				}
			}
		},
		OnShutdown: func(ctx context.Context) {
			for i := len(handlers) - 1; i >= 0; i-- {
				if s, ok := handlers[i].(shutdownHandler); ok {
					s.Shutdown(ctx)
				}
			}
		},
	}

	app.Logger().Info("Starting application", "handlers", len(handlers), "plugins", app.Plugins())

	if err := runner.Run(spec); err != nil {
		return apperrors.NewAppError("run", err, apperrors.ErrCodeRun)
	}
	return nil
}

// RunOrExit runs b and terminates through exit(1) on any startup failure.
// main passes os.Exit.
func RunOrExit(b *Builder, runner Runner, logger logging.Logger, exit func(code int)) {
	err := b.Run(runner)
	if err == nil {
		return
	}

	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger.Error(fmt.Sprintf("error while running application: %v", err),
		"error_code", apperrors.ClassifyError(err),
		"fatal", apperrors.IsFatal(err),
	)
	exit(1)
}

// DebugPlugin returns a setup hook that attaches p only when debug is true
func DebugPlugin(debug bool, p Plugin) SetupHook {
	return func(app *App) error {
		if !debug {
			return nil
		}
		return app.Plugin(p)
	}
}
