// SPDX-License-Identifier: MPL-2.0

// Package history keeps the run history of a launch directory: one
// tab-separated line per run, appended when the run starts and finalized
// with its status and duration when it ends.
//
// The file is shared by every flowrun process started in the same
// directory. Writes are serialized with an advisory lock file next to it
// (flock on Linux, an in-process mutex elsewhere). Readers take no lock.
package history
