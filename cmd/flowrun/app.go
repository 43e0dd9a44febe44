// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowrun/flowrun/internal/config"
	"github.com/flowrun/flowrun/internal/history"
	"github.com/flowrun/flowrun/internal/launch"
	"github.com/flowrun/flowrun/internal/runtime"
	"github.com/flowrun/flowrun/pkg/fspath"
	"github.com/flowrun/flowrun/pkg/project"
	"github.com/flowrun/flowrun/pkg/types"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Runner executes a resolved launch. *runtime.Engine implements it.
	Runner interface {
		Run(ctx context.Context, l runtime.Launch) (types.ExitCode, error)
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Repository replaces the project cache used to resolve remote pipelines.
		Repository launch.ProjectRepository
		// NewRunner builds the execution engine for a run.
		NewRunner func(opts runtime.Options) Runner
		// Stdin is offered to "-" pipelines; nil means no input is available.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// WorkDir is the launch directory. Empty means the working directory.
		WorkDir string
		// ConfigDir replaces the platform configuration directory.
		ConfigDir string
		Now       func() time.Time
	}

	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer.
	App struct {
		deps Dependencies

		// Set from global flags.
		configPath string
		verbose    bool
		logLevel   string

		cfg      *config.Config
		exitCode types.ExitCode
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Stdin == nil {
		deps.Stdin = pipedStdin()
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewRunner == nil {
		deps.NewRunner = func(opts runtime.Options) Runner { return runtime.NewEngine(opts) }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		deps.WorkDir = wd
	}

	return &App{deps: deps}, nil
}

// ExitCode returns the status the process should exit with.
func (a *App) ExitCode() types.ExitCode { return a.exitCode }

// pipedStdin returns os.Stdin unless it is a terminal.
func pipedStdin() io.Reader {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return os.Stdin
}

// setup loads the configuration and installs the logger. It runs once per
// invocation, before the command handler.
func (a *App) setup(ctx context.Context) error {
	cfg, err := a.deps.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return err
	}
	a.cfg = cfg

	if !a.verbose {
		a.verbose = cfg.UI.Verbose
	}

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = config.LogLevel(a.logLevel)
	}
	if a.verbose {
		level = config.LogLevelDebug
	}
	logger, err := newLogger(a.deps.Stderr, level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}

	return nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.configPath,
		ConfigDirPath:  a.deps.ConfigDir,
		BaseDir:        a.deps.WorkDir,
	}
}

// markdownStyle returns the glamour style for rendered issues.
func (a *App) markdownStyle() string {
	if a.cfg != nil && a.cfg.UI.ColorScheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

func (a *App) manager() (*project.Manager, error) {
	root, err := a.cfg.ResolvedAssetsDir()
	if err != nil {
		return nil, err
	}
	return project.NewManager(types.FilesystemPath(root), project.WithHubURL(a.cfg.HubURL))
}

func (a *App) repository() (launch.ProjectRepository, error) {
	if a.deps.Repository != nil {
		return a.deps.Repository, nil
	}
	m, err := a.manager()
	if err != nil {
		return nil, err
	}
	return launch.NewProjectRepository(m), nil
}

// historyStore opens the history file of the launch directory.
func (a *App) historyStore() *history.Store {
	path := fspath.ResolveAgainst(types.FilesystemPath(a.deps.WorkDir), types.FilesystemPath(a.cfg.HistoryFile))
	return history.NewStore(path.String())
}

func (a *App) runner(store *history.Store) Runner {
	return a.deps.NewRunner(runtime.Options{
		WorkDir:    a.deps.WorkDir,
		TempDir:    a.cfg.TempDir,
		InheritEnv: a.cfg.Engine.InheritEnv,
		Stdin:      a.deps.Stdin,
		Stdout:     a.deps.Stdout,
		Stderr:     a.deps.Stderr,
		History:    store,
	})
}
