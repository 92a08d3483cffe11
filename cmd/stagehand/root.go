package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/adapters/command"
	"github.com/stagehand-dev/stagehand/internal/adapters/download"
	"github.com/stagehand-dev/stagehand/internal/adapters/logging"
	"github.com/stagehand-dev/stagehand/internal/adapters/statefile"
	"github.com/stagehand-dev/stagehand/internal/app"
	"github.com/stagehand-dev/stagehand/internal/domain/resolve"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

var (
	// Global flags
	projectDir string
	verbose    bool
	jsonLogs   bool
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Reproducible project runtime setup",
	Long: `Stagehand reads a project's declared requirements (runtimes, package
environments, data files, services, variables) and makes the local
machine satisfy them, recording what it resolved so the next run is a
no-op.

  declare -> check -> provision -> verify -> record`,
	SilenceErrors: true, // We format errors ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "emit logs as JSON")
}

// newService assembles the application service from the real adapters,
// honoring the user preferences file when present.
func newService() (*app.PrepareService, app.Preferences) {
	prefs := app.DefaultPreferences()
	if path, err := app.PreferencesPath(); err == nil {
		if loaded, err := app.LoadPreferences(path); err == nil {
			prefs = loaded
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
		}
	}

	level := parseLevel(prefs.LogLevel)
	if verbose {
		level = ports.LevelDebug
	}
	logger := logging.NewConsoleLogger(
		logging.WithLevel(level),
		logging.WithJSONFormat(jsonLogs),
	)

	svc := app.NewPrepareService(
		command.NewExecRunner(),
		download.NewHTTPDownloader(),
		statefile.NewYAMLRepository(),
		app.WithLogger(logger),
	)
	return svc, prefs
}

// baseOptions seeds resolver options from the preferences.
func baseOptions(prefs app.Preferences) resolve.Options {
	opts := resolve.DefaultOptions()
	opts.AllowNetwork = prefs.AllowNetwork
	if prefs.ConcurrentChecks > 0 {
		opts.ConcurrentChecks = prefs.ConcurrentChecks
	}
	return opts
}

func parseLevel(s string) ports.Level {
	switch s {
	case "debug":
		return ports.LevelDebug
	case "warn":
		return ports.LevelWarn
	case "error":
		return ports.LevelError
	default:
		return ports.LevelInfo
	}
}

// printError prints an error message to stderr.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}
