// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flowrun/flowrun/pkg/project"
)

const (
	// StdinPipeline is the pipeline name that reads the script from standard input.
	StdinPipeline = "-"

	stdinTempPattern = "flowrun-stdin-*.sh"
)

type (
	// Request is one run invocation as seen by the resolver.
	Request struct {
		// Pipeline is "-", a filesystem path, or a project name.
		Pipeline string
		Revision string
		// Latest forces a download of remote projects before checkout.
		Latest bool
		// Stdin is read when Pipeline is "-"; nil means no input is available.
		Stdin io.Reader
	}

	// Resolver turns pipeline identifiers into PipelineReferences.
	Resolver struct {
		repo    ProjectRepository
		tempDir string
	}
)

// NewResolver creates a resolver. Scripts read from standard input are
// written to tempDir (os.TempDir() when empty).
func NewResolver(repo ProjectRepository, tempDir string) *Resolver {
	return &Resolver{repo: repo, tempDir: tempDir}
}

// Resolve picks the script source for req. The first match wins: standard
// input, an existing local script or project directory, then a remote project.
func (r *Resolver) Resolve(ctx context.Context, req Request) (PipelineReference, error) {
	if req.Pipeline == StdinPipeline {
		return r.resolveStdin(req)
	}

	if info, err := os.Stat(req.Pipeline); err == nil {
		ref, ok, err := r.resolveLocal(ctx, req, info)
		if err != nil || ok {
			return ref, err
		}
		slog.Debug("directory has no main script, trying remote project", "path", req.Pipeline)
	}

	return r.resolveRemote(ctx, req)
}

func (r *Resolver) resolveStdin(req Request) (PipelineReference, error) {
	if req.Stdin == nil {
		return nil, NewInvalidInvocation(ReasonNoStdin, "")
	}

	in := bufio.NewReader(req.Stdin)
	if _, err := in.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewInvalidInvocation(ReasonNoStdin, "")
		}
		return nil, fmt.Errorf("failed to read standard input: %w", err)
	}

	if req.Revision != "" {
		return nil, NewInvalidInvocation(ReasonRevisionWithStdin, req.Revision)
	}

	path, err := r.materialize(in)
	if err != nil {
		return nil, err
	}
	return &StdinScript{TempPath: path}, nil
}

// materialize copies a script stream into a new temporary file.
func (r *Resolver) materialize(in io.Reader) (string, error) {
	f, err := os.CreateTemp(r.tempDir, stdinTempPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary script: %w", err)
	}

	_, copyErr := io.Copy(f, in)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(f.Name()) // Best-effort cleanup
		return "", fmt.Errorf("failed to write temporary script: %w", err)
	}
	return f.Name(), nil
}

// resolveLocal handles an existing path. ok is false when a directory has no
// main script, in which case the name is tried as a remote project. Any
// other existing path is the script itself.
func (r *Resolver) resolveLocal(ctx context.Context, req Request, info os.FileInfo) (ref PipelineReference, ok bool, err error) {
	script := req.Pipeline
	var (
		projectDir string
		revision   project.RevisionInfo
	)

	if info.IsDir() {
		src, err := r.repo.LocalProject(req.Pipeline)
		if err != nil {
			return nil, false, err
		}
		script = src.MainScript()
		scriptInfo, statErr := os.Stat(script)
		if statErr != nil || !scriptInfo.Mode().IsRegular() {
			return nil, false, nil
		}
		projectDir = req.Pipeline
		if revision, err = src.RevisionInfo(ctx); err != nil {
			slog.Debug("cannot read revision of local project", "path", req.Pipeline, "error", err)
		}
	}

	if req.Revision != "" {
		return nil, false, NewInvalidInvocation(ReasonRevisionWithLocal, req.Revision)
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return r.resolveStream(script)
	}

	contentID, err := ContentID(script)
	if err != nil {
		return nil, false, err
	}

	return &LocalScript{Path: script, ContentID: contentID, ProjectDir: projectDir, Revision: revision}, true, nil
}

// resolveStream handles a named pipe or device such as <(gen.sh). It can
// only be read once, so the script runs from a temporary copy.
func (r *Resolver) resolveStream(path string) (PipelineReference, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	tmp, err := r.materialize(f)
	if err != nil {
		return nil, false, err
	}
	contentID, err := ContentID(tmp)
	if err != nil {
		_ = os.Remove(tmp) // Best-effort cleanup
		return nil, false, err
	}
	return &LocalScript{Path: tmp, Origin: path, ContentID: contentID, Temporary: true}, true, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, req Request) (PipelineReference, error) {
	handle, err := r.repo.Project(ctx, req.Pipeline)
	if err != nil {
		return nil, repositoryFailure(req.Pipeline, err)
	}
	repoID := handle.Name()

	updated := false
	if !handle.IsRunnable() || req.Latest {
		summary, err := handle.Download(ctx)
		if err != nil {
			return nil, repositoryFailure(repoID, err)
		}
		if summary != "" {
			slog.Info(summary)
		}
		updated = true
	}

	if err := handle.Checkout(ctx, req.Revision); err != nil {
		return nil, repositoryFailure(repoID, err)
	}
	if err := handle.UpdateModules(ctx); err != nil {
		return nil, repositoryFailure(repoID, err)
	}

	script, rev, err := handle.ScriptFile(ctx)
	if err != nil {
		return nil, repositoryFailure(repoID, err)
	}

	if !updated {
		handle.CheckRemoteStatus(ctx, rev)
	}

	return &RemoteProject{
		RepoID:       repoID,
		Revision:     req.Revision,
		Script:       script,
		RevisionInfo: rev,
		ProjectDir:   handle.Dir(),
	}, nil
}

// repositoryFailure lets domain errors through and wraps everything else
// as a RepositoryError.
func repositoryFailure(repoID string, err error) error {
	switch {
	case errors.Is(err, project.ErrProject),
		errors.Is(err, ErrInvalidInvocation),
		errors.Is(err, ErrRepository),
		errors.Is(err, ErrParse),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &RepositoryError{RepoID: repoID, Cause: err}
	}
}

// ContentID returns the hex SHA-256 of the file at path.
func ContentID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
