// SPDX-License-Identifier: MPL-2.0

package launch

import "github.com/flowrun/flowrun/pkg/project"

// ReferenceKind names the variant of a PipelineReference.
type ReferenceKind string

const (
	KindStdin  ReferenceKind = "stdin"
	KindLocal  ReferenceKind = "local"
	KindRemote ReferenceKind = "remote"
)

type (
	// PipelineReference is the script a run executes. It is one of
	// *StdinScript, *LocalScript or *RemoteProject.
	PipelineReference interface {
		Kind() ReferenceKind
		ScriptPath() string
		isPipelineReference()
	}

	// StdinScript is a script read from standard input into a temporary file.
	// The file belongs to the run and is removed once it finishes.
	StdinScript struct {
		TempPath string
	}

	// LocalScript is a script file on disk, given directly or as the main
	// script of a local project directory.
	LocalScript struct {
		Path string
		// Origin is the named pipe or device the script was copied from when
		// Temporary is set.
		Origin string
		// Temporary marks a copy in the temp dir that is removed after the run.
		Temporary bool
		// ContentID is the hex SHA-256 of the script contents.
		ContentID string
		// ProjectDir is set when the script is the main script of a directory.
		ProjectDir string
		// Revision describes the directory's Git work tree, when it has one.
		Revision project.RevisionInfo
	}

	// RemoteProject is a script from the project cache after checkout.
	RemoteProject struct {
		RepoID string
		// Revision is the revision that was requested (empty for the default branch).
		Revision     string
		Script       string
		RevisionInfo project.RevisionInfo
		ProjectDir   string
	}
)

func (*StdinScript) Kind() ReferenceKind  { return KindStdin }
func (s *StdinScript) ScriptPath() string { return s.TempPath }
func (*StdinScript) isPipelineReference() {}

func (*LocalScript) Kind() ReferenceKind  { return KindLocal }
func (s *LocalScript) ScriptPath() string { return s.Path }
func (*LocalScript) isPipelineReference() {}

func (*RemoteProject) Kind() ReferenceKind  { return KindRemote }
func (r *RemoteProject) ScriptPath() string { return r.Script }
func (*RemoteProject) isPipelineReference() {}

// TemporaryFile returns the script file that belongs to the run and must be
// removed once it finishes.
func TemporaryFile(ref PipelineReference) (string, bool) {
	switch r := ref.(type) {
	case *StdinScript:
		return r.TempPath, true
	case *LocalScript:
		if r.Temporary {
			return r.Path, true
		}
	}
	return "", false
}
