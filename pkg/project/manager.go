// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/sahilm/fuzzy"

	"github.com/flowrun/flowrun/pkg/fspath"
	"github.com/flowrun/flowrun/pkg/types"
)

// maxSuggestions bounds the "did you mean" list of UnknownProjectError.
const maxSuggestions = 3

type (
	// Manager resolves project names to projects cached below its root directory.
	Manager struct {
		root    string
		hubURL  string
		getenv  func(string) string
		homeDir string
	}

	// Option configures a Manager.
	Option func(*Manager)
)

// WithHubURL sets the base URL used to expand owner/repo names.
func WithHubURL(hubURL string) Option {
	return func(m *Manager) {
		if hubURL != "" {
			m.hubURL = strings.TrimSuffix(hubURL, "/")
		}
	}
}

// WithGetenv replaces os.Getenv for token lookups.
func WithGetenv(getenv func(string) string) Option {
	return func(m *Manager) { m.getenv = getenv }
}

// WithHomeDir sets the directory searched for SSH keys.
func WithHomeDir(dir string) Option {
	return func(m *Manager) { m.homeDir = dir }
}

// NewManager creates a manager caching projects below root.
func NewManager(root types.FilesystemPath, opts ...Option) (*Manager, error) {
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assets directory: %w", err)
	}

	abs, err := fspath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets directory: %w", err)
	}

	m := &Manager{root: abs.String(), hubURL: DefaultHubURL, getenv: os.Getenv}
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		m.homeDir = home
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the absolute assets directory.
func (m *Manager) Root() string { return m.root }

// HubURL returns the base URL used to expand owner/repo names.
func (m *Manager) HubURL() string { return m.hubURL }

// Project returns the cached project for name. The project does not have to
// be downloaded yet, except for bare repository names, which are only
// matched against the cache.
func (m *Manager) Project(ctx context.Context, name string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc, bare, err := parseLocation(name, m.hubURL)
	if err != nil {
		return nil, err
	}
	if bare {
		return m.findCached(name)
	}
	return m.newProject(loc.key, loc.url), nil
}

// LocalProject opens dir as a project that is run in place.
func (m *Manager) LocalProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	manifest, err := LoadManifest(abs)
	if err != nil {
		return nil, err
	}

	name := manifest.Name
	if name == "" {
		name = filepath.Base(abs)
	}
	return &Project{name: name, dir: abs, local: true, manifest: manifest}, nil
}

// List returns every downloaded project, sorted by name.
func (m *Manager) List() ([]*Project, error) {
	var projects []*Project

	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == m.root {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() || p == m.root {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(p, git.GitDirName)); statErr != nil {
			return nil
		}

		rel, relErr := filepath.Rel(m.root, p)
		if relErr != nil {
			return relErr
		}
		projects = append(projects, m.newProject(filepath.ToSlash(rel), ""))
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	slices.SortFunc(projects, func(a, b *Project) int { return strings.Compare(a.name, b.name) })
	return projects, nil
}

// Drop deletes the cached clone of name. Unless force is set, a clone with
// local modifications is kept and ErrLocalChanges returned.
func (m *Manager) Drop(ctx context.Context, name string, force bool) error {
	p, err := m.Project(ctx, name)
	if err != nil {
		return err
	}
	if !p.IsDownloaded() {
		return &UnknownProjectError{Name: name}
	}

	if !force {
		dirty, statusErr := p.HasLocalChanges()
		if statusErr != nil {
			return statusErr
		}
		if dirty {
			return fmt.Errorf("%w in %s, use --force to drop it anyway", ErrLocalChanges, p.name)
		}
	}

	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p.dir, err)
	}
	m.pruneEmptyParents(filepath.Dir(p.dir))
	return nil
}

// newProject builds a cached project handle. An empty url is read from the
// clone's origin remote when one exists.
func (m *Manager) newProject(key, url string) *Project {
	dir := filepath.Join(m.root, filepath.FromSlash(key))
	if repo, err := git.PlainOpen(dir); err == nil {
		if remote, remoteErr := repo.Remote(git.DefaultRemoteName); remoteErr == nil && len(remote.Config().URLs) > 0 {
			url = remote.Config().URLs[0]
		}
	}
	return &Project{name: key, url: url, dir: dir, auth: m.authFor(url)}
}

func (m *Manager) findCached(bare string) (*Project, error) {
	cached, err := m.List()
	if err != nil {
		return nil, err
	}

	var (
		matches []*Project
		names   = make([]string, 0, len(cached))
	)
	for _, p := range cached {
		names = append(names, p.name)
		if path.Base(p.name) == bare {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &UnknownProjectError{Name: bare, Suggestions: suggest(bare, names)}
	default:
		candidates := make([]string, 0, len(matches))
		for _, p := range matches {
			candidates = append(candidates, p.name)
		}
		return nil, &AmbiguousProjectError{Name: bare, Candidates: candidates}
	}
}

func suggest(pattern string, names []string) []string {
	matches := fuzzy.Find(pattern, names)
	suggestions := make([]string, 0, min(len(matches), maxSuggestions))
	for _, match := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, match.Str)
	}
	return suggestions
}

func (m *Manager) pruneEmptyParents(dir string) {
	for dir != m.root && strings.HasPrefix(dir, m.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
