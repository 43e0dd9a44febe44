// SPDX-License-Identifier: MPL-2.0

package project

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flowrun/flowrun/pkg/cueutil"
)

const (
	// ManifestFile is the name of the project manifest at the project root.
	ManifestFile = "flowrun.cue"

	// DefaultMainScript is used when the manifest does not declare one.
	DefaultMainScript = "main.sh"
)

//go:embed manifest_schema.cue
var manifestSchema []byte

// Manifest is the decoded content of flowrun.cue.
type Manifest struct {
	Name          string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	MainScript    string `json:"mainScript,omitempty" yaml:"mainScript,omitempty" toml:"mainScript,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty" toml:"defaultBranch,omitempty"`
	HomePage      string `json:"homePage,omitempty" yaml:"homePage,omitempty" toml:"homePage,omitempty"`
	Author        string `json:"author,omitempty" yaml:"author,omitempty" toml:"author,omitempty"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// LoadManifest reads the manifest in dir. A missing manifest yields the
// defaults; an invalid one is an error.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)

	m := &Manifest{}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat manifest: %w", err)
		}
	} else {
		m, err = cueutil.DecodeFile[Manifest](manifestSchema, path, "#Manifest")
		if err != nil {
			return nil, fmt.Errorf("invalid project manifest: %w", err)
		}
	}

	if m.MainScript == "" {
		m.MainScript = DefaultMainScript
	}
	return m, nil
}
