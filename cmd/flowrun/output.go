// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Structured output formats shared by "info" and "config dump".
const (
	formatText = "text"
	formatCUE  = "cue"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

var errUnknownFormat = errors.New("unknown output format")

// encodeStructured writes v as JSON, YAML or TOML.
func encodeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w %q", errUnknownFormat, format)
	}
}
