package shell

import (
	"bilimusic/internal/infrastructure/logging"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
)

// WailsRunner starts the Wails run loop with the builder's handlers bound
type WailsRunner struct {
	// Options carries the window, asset and platform settings. Bind,
	// OnStartup, OnShutdown and Logger are filled in from the RunSpec.
	Options  *options.App
	LogLevel string

	run func(*options.App) error
}

// NewWailsRunner creates a runner over base options
func NewWailsRunner(base *options.App, logLevel string) *WailsRunner {
	return &WailsRunner{Options: base, LogLevel: logLevel, run: wails.Run}
}

// AppOptions merges the run spec into a copy of the base options
func (r *WailsRunner) AppOptions(spec *RunSpec) *options.App {
	opts := options.App{}
	if r.Options != nil {
		opts = *r.Options
	}

	opts.Bind = append(append([]interface{}{}, opts.Bind...), spec.Handlers...)
	opts.OnStartup = spec.OnStartup
	opts.OnShutdown = spec.OnShutdown
	opts.Logger = logging.NewWailsLoggerAdapter(spec.App.Logger())
	opts.LogLevel = logging.WailsLogLevel(r.LogLevel)
	opts.LogLevelProduction = logging.WailsLogLevel(r.LogLevel)

	return &opts
}

// Run blocks inside wails.Run until the application quits
func (r *WailsRunner) Run(spec *RunSpec) error {
	run := r.run
	if run == nil {
		run = wails.Run
	}
	return run(r.AppOptions(spec))
}
