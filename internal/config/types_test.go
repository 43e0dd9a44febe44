// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme ColorScheme
		want   bool
	}{
		{ColorSchemeAuto, true},
		{ColorSchemeDark, true},
		{ColorSchemeLight, true},
		{"", false},
		{"AUTO", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.scheme.IsValid()
			if isValid != tt.want {
				t.Errorf("ColorScheme(%q).IsValid() = %v, want %v", tt.scheme, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidColorScheme)) {
				t.Errorf("error should wrap ErrInvalidColorScheme, got: %v", errs)
			}
		})
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if ok, errs := level.IsValid(); !ok {
			t.Errorf("LogLevel(%q).IsValid() = false: %v", level, errs)
		}
	}
	ok, errs := LogLevel("trace").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidLogLevel) {
		t.Errorf("LogLevel(trace).IsValid() = %v, %v", ok, errs)
	}
}

func TestLogFormat_IsValid(t *testing.T) {
	t.Parallel()

	for _, format := range []LogFormat{LogFormatText, LogFormatJSON, LogFormatLogfmt} {
		if ok, errs := format.IsValid(); !ok {
			t.Errorf("LogFormat(%q).IsValid() = false: %v", format, errs)
		}
	}
	ok, errs := LogFormat("xml").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidLogFormat) {
		t.Errorf("LogFormat(xml).IsValid() = %v, %v", ok, errs)
	}
}

func TestConfig_Set(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		check   func(*Config) bool
		wantErr error
	}{
		{"assets_dir", "/data", func(c *Config) bool { return c.AssetsDir == "/data" }, nil},
		{"hub_url", "https://example.com", func(c *Config) bool { return c.HubURL == "https://example.com" }, nil},
		{"history_file", "h.tsv", func(c *Config) bool { return c.HistoryFile == "h.tsv" }, nil},
		{"temp_dir", "/t", func(c *Config) bool { return c.TempDir == "/t" }, nil},
		{"log.level", "info", func(c *Config) bool { return c.Log.Level == LogLevelInfo }, nil},
		{"log.format", "logfmt", func(c *Config) bool { return c.Log.Format == LogFormatLogfmt }, nil},
		{"ui.verbose", "true", func(c *Config) bool { return c.UI.Verbose }, nil},
		{"ui.color_scheme", "light", func(c *Config) bool { return c.UI.ColorScheme == ColorSchemeLight }, nil},
		{"engine.inherit_env", "false", func(c *Config) bool { return !c.Engine.InheritEnv }, nil},
		{"log.level", "loud", nil, ErrInvalidLogLevel},
		{"ui.verbose", "maybe", nil, ErrInvalidConfig},
		{"history_file", " ", nil, ErrInvalidConfig},
		{"container_engine", "docker", nil, ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestKeys_AllSettable(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		"ui.verbose":         "false",
		"engine.inherit_env": "true",
		"log.level":          "warn",
		"log.format":         "text",
		"ui.color_scheme":    "auto",
	}
	for _, key := range Keys() {
		value, ok := values[key]
		if !ok {
			value = "x"
		}
		if err := DefaultConfig().Set(key, value); err != nil {
			t.Errorf("Set(%q) error = %v", key, err)
		}
	}
}
