// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/flowrun/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/flowrun/config.cue on macOS, %APPDATA%\flowrun\config.cue
// on Windows), falling back to ./config.cue. Values are validated against the embedded
// #Config schema and may be overridden with FLOWRUN_* environment variables
// (FLOWRUN_LOG_LEVEL, FLOWRUN_ENGINE_INHERIT_ENV, ...).
package config
