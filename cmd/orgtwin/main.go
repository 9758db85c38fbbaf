// Command orgtwin is the CLI host (C13): a thin cli.App wrapping the
// synthetic-twin generator, the graph engine, the export/import
// round-trip, and the ATP/REST dispatcher behind a handful of
// subcommands (spec.md §6.4, SPEC_FULL.md §4.8.2).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/emergent-company/orgtwin/internal/config"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "orgtwin",
		Usage:   "synthetic-org digital-twin generator and query server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to orgtwin.toml",
			},
		},
		Commands: []*cli.Command{
			demoCommand(),
			generateCommand(),
			inspectCommand(),
			importCommand(),
			exportCommand(),
			serveCommand(),
			benchmarkCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "orgtwin: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the layered config honoring the global --config flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

