// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownKey is returned by Config.Set for keys that do not exist.
	ErrUnknownKey = errors.New("unknown config key")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// LogFormat selects the log line encoding.
	LogFormat string

	// InvalidValueError is returned when an enumerated config value is not recognized.
	InvalidValueError struct {
		Field string
		Value string
		sentinel error
	}

	// InvalidConfigError aggregates the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// AssetsDir holds the project cache; empty means DefaultAssetsDir().
		AssetsDir string `json:"assets_dir" yaml:"assets_dir" toml:"assets_dir" mapstructure:"assets_dir"`
		// HubURL is the base URL for owner/repo project names.
		HubURL string `json:"hub_url" yaml:"hub_url" toml:"hub_url" mapstructure:"hub_url"`
		// HistoryFile is the run history location.
		HistoryFile string `json:"history_file" yaml:"history_file" toml:"history_file" mapstructure:"history_file"`
		// TempDir holds stdin scripts and params files; empty means the system temp dir.
		TempDir string       `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir" mapstructure:"temp_dir"`
		Log     LogConfig    `json:"log" yaml:"log" toml:"log" mapstructure:"log"`
		UI      UIConfig     `json:"ui" yaml:"ui" toml:"ui" mapstructure:"ui"`
		Engine  EngineConfig `json:"engine" yaml:"engine" toml:"engine" mapstructure:"engine"`
	}

	// LogConfig configures the logger.
	LogConfig struct {
		Level  LogLevel  `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
		Format LogFormat `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables verbose output
		Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
	}

	// EngineConfig configures pipeline execution.
	EngineConfig struct {
		// InheritEnv passes the host environment to pipeline scripts.
		InheritEnv bool `json:"inherit_env" yaml:"inherit_env" toml:"inherit_env" mapstructure:"inherit_env"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		HubURL:      "https://github.com",
		HistoryFile: ".flowrun/history",
		Log: LogConfig{
			Level:  LogLevelWarn,
			Format: LogFormatText,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Engine: EngineConfig{
			InheritEnv: true,
		},
	}
}

// Keys lists the settable keys in file order.
func Keys() []string {
	return []string{
		"assets_dir",
		"hub_url",
		"history_file",
		"temp_dir",
		"log.level",
		"log.format",
		"ui.verbose",
		"ui.color_scheme",
		"engine.inherit_env",
	}
}

// Set assigns a value given as text to the key. The result is validated.
func (c *Config) Set(key, value string) error {
	switch key {
	case "assets_dir":
		c.AssetsDir = value
	case "hub_url":
		c.HubURL = value
	case "history_file":
		c.HistoryFile = value
	case "temp_dir":
		c.TempDir = value
	case "log.level":
		c.Log.Level = LogLevel(value)
	case "log.format":
		c.Log.Format = LogFormat(value)
	case "ui.color_scheme":
		c.UI.ColorScheme = ColorScheme(value)
	case "ui.verbose", "engine.inherit_env":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &InvalidValueError{Field: key, Value: value, sentinel: ErrInvalidConfig}
		}
		if key == "ui.verbose" {
			c.UI.Verbose = b
		} else {
			c.Engine.InheritEnv = b
		}
	default:
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}

	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// IsValid returns whether every enumerated field holds a known value.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, check := range []func() (bool, []error){
		c.Log.Level.IsValid,
		c.Log.Format.IsValid,
		c.UI.ColorScheme.IsValid,
	} {
		if valid, fieldErrs := check(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if strings.TrimSpace(c.HistoryFile) == "" {
		errs = append(errs, &InvalidValueError{Field: "history_file", Value: c.HistoryFile, sentinel: ErrInvalidConfig})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// Unwrap returns the sentinel for the field.
func (e *InvalidValueError) Unwrap() error { return e.sentinel }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "ui.color_scheme", Value: string(cs), sentinel: ErrInvalidColorScheme}}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "log.level", Value: string(l), sentinel: ErrInvalidLogLevel}}
	}
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "log.format", Value: string(f), sentinel: ErrInvalidLogFormat}}
	}
}
