// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowrun/flowrun/internal/config"
)

// newConfigCommand creates the `flowrun config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage flowrun configuration",
		Long: `Manage flowrun configuration.

Configuration is stored in:
  - Linux: ~/.config/flowrun/config.cue
  - macOS: ~/Library/Application Support/flowrun/config.cue
  - Windows: %APPDATA%\flowrun\config.cue

A config.cue in the launch directory is used when the file above does not
exist. FLOWRUN_* environment variables override file values, for example
FLOWRUN_LOG_LEVEL=debug or FLOWRUN_ENGINE_INHERIT_ENV=false.

Keys: ` + strings.Join(config.Keys(), ", "),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	skipSetup := map[string]string{skipSetupAnnotation: "true"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: app.action(func(_ *cobra.Command, _ []string) error {
			return showConfig(app)
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Args:        cobra.NoArgs,
		Annotations: skipSetup,
		RunE: app.action(func(_ *cobra.Command, _ []string) error {
			path, err := config.FilePath(app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.deps.Stdout, path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Create default configuration file",
		Args:        cobra.NoArgs,
		Annotations: skipSetup,
		RunE: app.action(func(_ *cobra.Command, _ []string) error {
			path, err := config.FilePath(app.loadOptions())
			if err != nil {
				return err
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(app.deps.Stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.deps.Stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: app.action(func(_ *cobra.Command, args []string) error {
			return setConfigValue(app, args[0], args[1])
		}),
	})

	var dumpFormat string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration",
		Args:  cobra.NoArgs,
		RunE: app.action(func(_ *cobra.Command, _ []string) error {
			if dumpFormat == formatCUE {
				fmt.Fprint(app.deps.Stdout, config.GenerateCUE(app.cfg))
				return nil
			}
			return encodeStructured(app.deps.Stdout, dumpFormat, app.cfg)
		}),
	}
	dumpCmd.Flags().StringVar(&dumpFormat, "format", formatCUE, "output format: cue, json, yaml or toml")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(app *App) error {
	cfg := app.cfg
	w := app.deps.Stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	assetsDir, err := cfg.ResolvedAssetsDir()
	if err != nil {
		return err
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = SubtitleStyle.Render("(system default " + filepath.Clean(os.TempDir()) + ")")
	}

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("assets_dir"), valueStyle.Render(assetsDir))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("hub_url"), valueStyle.Render(cfg.HubURL))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("history_file"), valueStyle.Render(cfg.HistoryFile))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("temp_dir"), valueStyle.Render(tempDir))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("log"))
	fmt.Fprintf(w, "  level: %s\n", valueStyle.Render(cfg.Log.Level.String()))
	fmt.Fprintf(w, "  format: %s\n", valueStyle.Render(cfg.Log.Format.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("engine"))
	fmt.Fprintf(w, "  inherit_env: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Engine.InheritEnv)))

	return nil
}

func setConfigValue(app *App, key, value string) error {
	if err := app.cfg.Set(key, value); err != nil {
		return err
	}

	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}
	if err := config.Save(app.cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(app.deps.Stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
