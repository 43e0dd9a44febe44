// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError decorates a failure with the operation that was attempted,
// the resource involved and remediation hints. The catalog holds Markdown
// guidance for the failure kinds a pipeline launch can hit; the CLI renders
// an entry with glamour after printing the error itself.
package issue
