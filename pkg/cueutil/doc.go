// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against embedded schemas.
//
// Both the flowrun configuration file and project manifests (flowrun.cue)
// go through the same flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode into a Go value
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var manifestSchema []byte
//
//	m, err := cueutil.DecodeFile[Manifest](manifestSchema, path, "#Manifest")
//	if err != nil {
//	    return nil, err // error carries the file path and CUE field path
//	}
package cueutil
