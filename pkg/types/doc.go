// SPDX-License-Identifier: MPL-2.0

// Package types defines small value types shared by the domain packages
// (project cache, launch resolution, runtime). It is a leaf dependency: it
// imports only the standard library and never imports domain packages.
package types
