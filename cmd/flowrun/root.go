// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/flowrun/flowrun/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowrun",
		Short: "Launch pipeline scripts from files, stdin or Git projects",
		Long: TitleStyle.Render("flowrun") + SubtitleStyle.Render(" - Launch pipeline scripts from files, stdin or Git projects") + `

flowrun runs a shell pipeline script read from standard input, a local
file or project directory, or a project cached from a Git repository.
Every run gets a unique name and session id recorded in the run history
of the launch directory.

` + SubtitleStyle.Render("Examples:") + `
  flowrun run main.sh --threads 4      Run a local script with a parameter
  cat main.sh | flowrun run -          Run a script from standard input
  flowrun run owner/repo -r v1.2.0     Run a remote project at a tag
  flowrun run ./proj --resume          Resume the last run
  flowrun log                          Show the run history`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is "+defaultConfigHint()+")")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCommand(app),
		newPullCommand(app),
		newListCommand(app),
		newInfoCommand(app),
		newDropCommand(app),
		newLogCommand(app),
		newConfigCommand(app),
	)

	return root
}

func defaultConfigHint() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return "$HOME/.config/flowrun/config.cue"
	}
	return fmt.Sprintf("%s/%s.%s", dir, config.ConfigFileName, config.ConfigFileExt)
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
	os.Exit(int(app.ExitCode()))
}
