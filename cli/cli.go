package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/tracebench/extension"
	"github.com/perfgo/tracebench/runner"
)

const AppName = "tracebench"

const envPrefix = "TRACEBENCH_"

// Exit codes of the run command.
const (
	ExitOK          = 0
	ExitFailures    = 1
	ExitNoSuites    = 2
	ExitEnvironment = 3
	ExitInterrupted = 130
)

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run PHP tracer benchmark suites",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "verbose",
					Usage:   "Enable verbose (debug) logging",
					EnvVars: []string{envPrefix + "VERBOSE"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Discover and run benchmark suites",
		Action: app.run,
		Flags:  runFlags(),
		Description: `Run every benchmark script below --root once per pass.

Without --tracer a single baseline pass runs. Every --tracer adds one pass
with the compiled extension of that version loaded.

Exit codes:
  0  all scripts passed
  1  at least one script failed
  2  no benchmark suite could be discovered or loaded
  3  the interpreter could not be started or a tracer failed to compile`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous benchmark runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Filter by relative path of the working directory",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View benchmark results from history",
		ArgsUsage:       "[ID|INDEX] [-- pprof args]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View benchmark results from history.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <hex-id>    View run matching the hex ID prefix

Examples:
  tracebench view                  # View last run
  tracebench view -1               # View 2nd last run
  tracebench view abc123 -http=:0  # Open the wall-time profile in the pprof web UI

When the run recorded a wall-time profile (--pprof) it is opened with
go tool pprof after the summary.`,
	})
	return app
}

func runFlags() []cli.Flag {
	runnerDefaults := runner.DefaultConfig()
	buildDefaults := extension.DefaultConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "php",
			Usage:   "PHP version to run, resolved as php<version> in PATH",
			EnvVars: []string{envPrefix + "PHP"},
		},
		&cli.StringFlag{
			Name:    "php-binary",
			Usage:   "Path of the PHP interpreter, overrides --php",
			EnvVars: []string{envPrefix + "PHP_BINARY"},
		},
		&cli.StringSliceFlag{
			Name:    "tracer",
			Usage:   "Tracer version to benchmark, may be repeated",
			EnvVars: []string{envPrefix + "TRACERS"},
		},
		&cli.StringFlag{
			Name:    "root",
			Usage:   "Directory containing the benchmark suites",
			Value:   "benchmark-scripts",
			EnvVars: []string{envPrefix + "ROOT"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout per script, 0 disables it",
			Value:   runnerDefaults.Timeout,
			EnvVars: []string{envPrefix + "TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "Number of suites to run in parallel",
			Value:   1,
			EnvVars: []string{envPrefix + "JOBS"},
		},
		&cli.BoolFlag{
			Name:    "teamcity",
			Usage:   "Print TeamCity service messages",
			EnvVars: []string{envPrefix + "TEAMCITY"},
		},
		&cli.BoolFlag{
			Name:  "pprof",
			Usage: "Write a wall-time pprof profile of all successful scripts",
		},
		&cli.BoolFlag{
			Name:    "no-history",
			Usage:   "Do not record the run in .tracebench/history",
			EnvVars: []string{envPrefix + "NO_HISTORY"},
		},
		&cli.BoolFlag{
			Name:  "echo",
			Usage: "Print script output while it runs",
		},
		&cli.StringFlag{
			Name:    "tracer-src",
			Usage:   "Directory with one tracer source checkout per version",
			Value:   buildDefaults.SourceRoot,
			EnvVars: []string{envPrefix + "TRACER_SRC"},
		},
		&cli.StringFlag{
			Name:    "build-cmd",
			Usage:   "Command building a tracer checkout",
			Value:   strings.Join(buildDefaults.BuildCommand, " "),
			EnvVars: []string{envPrefix + "BUILD_CMD"},
		},
		&cli.StringFlag{
			Name:  "artifact",
			Usage: "Built extension, relative to the tracer checkout",
			Value: buildDefaults.ArtifactPath,
		},
		&cli.BoolFlag{
			Name:  "rebuild",
			Usage: "Rebuild tracers even if the extension already exists",
		},
	}
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}
