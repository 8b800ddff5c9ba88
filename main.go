package main

import (
	"embed"
	"fmt"
	"os"

	"bilimusic/internal/app"
	"bilimusic/internal/buildmode"
	"bilimusic/internal/config"
	"bilimusic/internal/devtools"
	"bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"
	"bilimusic/internal/plugins/logplugin"
	"bilimusic/internal/shell"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("BILIMUSIC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
	})
	errors.SetRetryLogger(errors.NewLoggerBridge(logger))

	application := app.NewApp(cfg, logger)
	commands := devtools.NewCommands(buildmode.Debug, logger)

	logs := logplugin.NewBuilder().
		Level(zerolog.InfoLevel).
		Format(cfg.Logging.Format).
		Target(logplugin.Stdout())
	if cfg.Logging.Dir != "" {
		logs.Target(logplugin.LogDir(cfg.Logging.Dir, "bilimusic.log"))
	}
	logPlugin := logs.Build()
	defer logPlugin.Close()

	builder := shell.Default().
		WithLogger(logger).
		Invoke(commands, application).
		Setup(shell.DebugPlugin(buildmode.Debug, logPlugin))

	runner := shell.NewWailsRunner(&options.App{
		Title:            cfg.Window.Title,
		Width:            cfg.Window.Width,
		Height:           cfg.Window.Height,
		MinWidth:         cfg.Window.MinWidth,
		MinHeight:        cfg.Window.MinHeight,
		Frameless:        cfg.Window.Frameless,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		WindowStartState: options.Normal,
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			ZoomFactor:           1.0,
			BackdropType:         windows.Mica,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarHiddenInset(),
			Appearance:           mac.NSAppearanceNameDarkAqua,
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			About: &mac.AboutInfo{
				Title:   cfg.Window.Title,
				Message: "Bilibili music player",
			},
		},
	}, cfg.Logging.Level)

	shell.RunOrExit(builder, runner, logger, os.Exit)
}
