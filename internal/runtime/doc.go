// SPDX-License-Identifier: MPL-2.0

// Package runtime executes resolved pipelines with an embedded shell
// interpreter (mvdan/sh).
//
// Engine.Run receives the launch produced by the resolver, the allocated run
// name and the bound parameters. It exposes them to the script as FLOWRUN_*
// and PARAM_* environment variables, records the run in the history store
// and returns the script's exit status.
package runtime
