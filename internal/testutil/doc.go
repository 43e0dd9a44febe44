// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail the test on error
// instead of returning it: environment variables (MustSetenv),
// working directory and files (MustChdir, MustWriteFile, MustMkdirAll), the
// per-user config directory (SetConfigHome) and a controllable clock.
package testutil
