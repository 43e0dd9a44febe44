// SPDX-License-Identifier: MPL-2.0

// Package project manages pipeline projects: Git repositories cloned into a
// local cache (the assets directory) and plain local directories. A project
// carries an optional flowrun.cue manifest that declares its main script and
// default branch.
//
// Remote projects are addressed by "owner/repo" (resolved against the hub
// URL), by a full Git URL, or by a bare repository name that matches exactly
// one cached project.
package project
