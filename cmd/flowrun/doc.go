// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for flowrun.
//
// This package implements the Cobra command hierarchy for the flowrun CLI:
// the run command that resolves and executes pipelines, project cache
// management (pull, list, info, drop), the run history log and the config
// subcommands. App is the composition root; command handlers get their
// collaborators from it so tests can swap them for fakes.
package cmd
