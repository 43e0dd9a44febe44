// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It centralizes the GOOS names used for platform switches and the Windows
// reserved file names that cannot appear as path segments in the project
// cache.
package platform
