// Command solarroi runs rooftop analyses locally and administers API keys.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/solarroi/solarroi/internal/config"
)

type cli struct {
	Verbose bool `short:"v" help:"Log at debug level."`

	Analyze AnalyzeCmd `cmd:"" help:"Analyse rooftop images and write reports."`
	Cities  CitiesCmd  `cmd:"" help:"List supported cities."`
	Panels  PanelsCmd  `cmd:"" help:"List supported panel types."`
	Keys    KeysCmd    `cmd:"" help:"Manage API keys (requires DATABASE_URL)."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("reading .env", "error", err)
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("solarroi"),
		kong.Description("Solar rooftop potential and ROI estimation."),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)

	kctx.FatalIfErrorf(kctx.Run(cfg))
}
