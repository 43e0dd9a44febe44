// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"

	"github.com/flowrun/flowrun/pkg/project"
)

type (
	// ProjectSource is the capability shared by local directories and cached
	// remote projects.
	ProjectSource interface {
		// MainScript returns the absolute path of the declared main script.
		MainScript() string
		RevisionInfo(ctx context.Context) (project.RevisionInfo, error)
	}

	// ProjectHandle is a remote project backed by the local cache.
	ProjectHandle interface {
		ProjectSource
		Name() string
		Dir() string
		IsRunnable() bool
		// Download clones or updates the cache and returns a summary for the user.
		Download(ctx context.Context) (string, error)
		Checkout(ctx context.Context, revision string) error
		UpdateModules(ctx context.Context) error
		ScriptFile(ctx context.Context) (string, project.RevisionInfo, error)
		// CheckRemoteStatus reports staleness; it never fails.
		CheckRemoteStatus(ctx context.Context, rev project.RevisionInfo)
	}

	// ProjectRepository hands out project handles.
	ProjectRepository interface {
		Project(ctx context.Context, name string) (ProjectHandle, error)
		LocalProject(dir string) (ProjectSource, error)
	}

	managerRepository struct {
		manager *project.Manager
	}
)

// NewProjectRepository exposes a project.Manager as a ProjectRepository.
func NewProjectRepository(m *project.Manager) ProjectRepository {
	return &managerRepository{manager: m}
}

func (r *managerRepository) Project(ctx context.Context, name string) (ProjectHandle, error) {
	p, err := r.manager.Project(ctx, name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *managerRepository) LocalProject(dir string) (ProjectSource, error) {
	p, err := r.manager.LocalProject(dir)
	if err != nil {
		return nil, err
	}
	return p, nil
}
