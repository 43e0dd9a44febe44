// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Project is a pipeline project, either a clone in the assets directory or
// a local directory run in place.
type Project struct {
	name  string
	url   string
	dir   string
	local bool
	auth  transport.AuthMethod

	manifest *Manifest
	current  RevisionInfo
}

// Name returns the cache key of a cached project (e.g. "github.com/owner/repo")
// or the manifest or directory name of a local one.
func (p *Project) Name() string { return p.name }

// URL returns the Git URL of a cached project.
func (p *Project) URL() string { return p.url }

// Dir returns the project root directory.
func (p *Project) Dir() string { return p.dir }

// IsLocal reports whether the project is a local directory run in place.
func (p *Project) IsLocal() bool { return p.local }

// Manifest returns the project manifest as found in the working tree.
func (p *Project) Manifest() (*Manifest, error) {
	if p.manifest != nil {
		return p.manifest, nil
	}
	m, err := LoadManifest(p.dir)
	if err != nil {
		return nil, err
	}
	p.manifest = m
	return m, nil
}

// MainScript returns the absolute path of the main script. An unreadable
// manifest falls back to DefaultMainScript; ScriptFile reports the error.
func (p *Project) MainScript() string {
	script := DefaultMainScript
	if m, err := p.Manifest(); err == nil {
		script = m.MainScript
	}
	return filepath.Join(p.dir, filepath.FromSlash(script))
}

// IsDownloaded reports whether a clone exists in the cache.
func (p *Project) IsDownloaded() bool {
	_, err := git.PlainOpen(p.dir)
	return err == nil
}

// IsRunnable reports whether the project can run without downloading: the
// clone exists and its main script is present.
func (p *Project) IsRunnable() bool {
	if !p.local && !p.IsDownloaded() {
		return false
	}
	info, err := os.Stat(p.MainScript())
	return err == nil && info.Mode().IsRegular()
}

// Download clones the project or, when already cached, fetches every branch
// and tag and fast-forwards the checked out branch. It returns a one line
// summary for the user.
func (p *Project) Download(ctx context.Context) (string, error) {
	if p.local {
		return "", fmt.Errorf("%s is a local project and cannot be downloaded", p.name)
	}
	if p.url == "" {
		return "", &UnknownProjectError{Name: p.name}
	}

	repo, err := git.PlainOpen(p.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return p.clone(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", p.dir, err)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       p.auth,
		Tags:       git.AllTags,
		Force:      true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Sprintf("%s is up to date", p.name), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", p.url, err)
	}

	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return fmt.Sprintf("fetched %s", p.name), nil //nolint:nilerr // detached HEAD has nothing to fast-forward
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, head.Name().Short()), true)
	if err != nil || remoteRef.Hash() == head.Hash() {
		return fmt.Sprintf("fetched %s", p.name), nil //nolint:nilerr // branch without upstream
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return "", fmt.Errorf("failed to update %s: %w", head.Name().Short(), err)
	}
	p.manifest = nil

	return fmt.Sprintf("updated %s to %s", p.name, shortHash(remoteRef.Hash())), nil
}

func (p *Project) clone(ctx context.Context) (string, error) {
	if err := os.MkdirAll(filepath.Dir(p.dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	repo, err := git.PlainCloneContext(ctx, p.dir, false, &git.CloneOptions{
		URL:  p.url,
		Auth: p.auth,
		Tags: git.AllTags,
	})
	if err != nil {
		_ = os.RemoveAll(p.dir) // Best-effort cleanup of a partial clone
		if errors.Is(err, transport.ErrRepositoryNotFound) || errors.Is(err, transport.ErrAuthenticationRequired) {
			return "", fmt.Errorf("%w: %s", &UnknownProjectError{Name: p.name}, err.Error())
		}
		return "", fmt.Errorf("failed to clone %s: %w", p.url, err)
	}
	p.manifest = nil

	summary := fmt.Sprintf("downloaded %s", p.name)
	if head, headErr := repo.Head(); headErr == nil {
		summary += " at " + shortHash(head.Hash())
	}
	return summary, nil
}

// Checkout switches the working tree to revision: a branch, a tag or a
// commit hash. An empty revision selects the default branch.
func (p *Project) Checkout(_ context.Context, revision string) error {
	repo, err := p.open()
	if err != nil {
		return err
	}

	if revision == "" {
		if revision, err = p.defaultBranch(repo); err != nil {
			return err
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	// Remote branch: move the local branch to the fetched head.
	if ref, refErr := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, revision), true); refErr == nil {
		branch := plumbing.NewBranchReferenceName(revision)
		if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, ref.Hash())); err != nil {
			return fmt.Errorf("failed to update branch %s: %w", revision, err)
		}
		return p.checkoutBranch(wt, branch, ref.Hash())
	}

	if ref, refErr := repo.Reference(plumbing.NewBranchReferenceName(revision), true); refErr == nil {
		return p.checkoutBranch(wt, ref.Name(), ref.Hash())
	}

	if name, hash, ok := findTag(repo, revision); ok {
		if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
			return fmt.Errorf("failed to checkout tag %s: %w", name, err)
		}
		p.setCurrent(RevisionInfo{Name: name, Commit: hash.String(), Type: RevisionTag})
		return nil
	}

	if isHashPrefix(revision) {
		if hash, resolveErr := repo.ResolveRevision(plumbing.Revision(revision)); resolveErr == nil {
			if _, commitErr := repo.CommitObject(*hash); commitErr == nil {
				if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
					return fmt.Errorf("failed to checkout commit %s: %w", revision, err)
				}
				p.setCurrent(RevisionInfo{Name: revision, Commit: hash.String(), Type: RevisionCommit})
				return nil
			}
		}
	}

	return &UnknownRevisionError{Project: p.name, Revision: revision}
}

func (p *Project) checkoutBranch(wt *git.Worktree, branch plumbing.ReferenceName, hash plumbing.Hash) error {
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branch, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch.Short(), err)
	}
	p.setCurrent(RevisionInfo{Name: branch.Short(), Commit: hash.String(), Type: RevisionBranch})
	return nil
}

func (p *Project) setCurrent(info RevisionInfo) {
	p.current = info
	p.manifest = nil
}

// defaultBranch picks the branch used when no revision is requested: the
// manifest's defaultBranch, the remote HEAD, main or master, then whatever
// branch HEAD points to.
func (p *Project) defaultBranch(repo *git.Repository) (string, error) {
	if m, err := p.Manifest(); err == nil && m.DefaultBranch != "" {
		return m.DefaultBranch, nil
	}

	remoteHead := plumbing.NewRemoteHEADReferenceName(git.DefaultRemoteName)
	if ref, err := repo.Reference(remoteHead, false); err == nil && ref.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(ref.Target().Short(), git.DefaultRemoteName+"/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, candidate), true); err == nil {
			return candidate, nil
		}
	}

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short(), nil
	}

	return "", fmt.Errorf("%w: cannot determine the default branch of %s", ErrUnknownRevision, p.name)
}

// UpdateModules initializes and updates Git submodules recursively.
func (p *Project) UpdateModules(ctx context.Context) error {
	repo, err := p.open()
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	subs, err := wt.Submodules()
	if err != nil {
		return fmt.Errorf("failed to read submodules: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	err = subs.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		Auth:              p.auth,
	})
	if err != nil {
		return fmt.Errorf("failed to update submodules: %w", err)
	}
	return nil
}

// ScriptFile returns the main script of the checked out revision together
// with the revision information.
func (p *Project) ScriptFile(ctx context.Context) (string, RevisionInfo, error) {
	m, err := p.Manifest()
	if err != nil {
		return "", RevisionInfo{}, err
	}

	script := filepath.Join(p.dir, filepath.FromSlash(m.MainScript))
	if info, statErr := os.Stat(script); statErr != nil || !info.Mode().IsRegular() {
		return "", RevisionInfo{}, &MissingMainScriptError{Project: p.name, Script: m.MainScript}
	}

	rev, err := p.RevisionInfo(ctx)
	if err != nil {
		return "", RevisionInfo{}, err
	}
	return script, rev, nil
}

// RevisionInfo describes the checked out revision. A local directory that
// is not a Git work tree yields the zero value.
func (p *Project) RevisionInfo(_ context.Context) (RevisionInfo, error) {
	var (
		repo *git.Repository
		err  error
	)
	if p.local {
		repo, err = git.PlainOpenWithOptions(p.dir, &git.PlainOpenOptions{DetectDotGit: true})
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return RevisionInfo{}, nil
		}
	} else {
		repo, err = p.open()
	}
	if err != nil {
		return RevisionInfo{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return RevisionInfo{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if p.current.Commit == head.Hash().String() {
		return p.current, nil
	}
	if head.Name().IsBranch() {
		return RevisionInfo{Name: head.Name().Short(), Commit: head.Hash().String(), Type: RevisionBranch}, nil
	}
	if tags := tagsAt(repo, head.Hash()); len(tags) > 0 {
		return RevisionInfo{Name: tags[0], Commit: head.Hash().String(), Type: RevisionTag}, nil
	}
	return RevisionInfo{Commit: head.Hash().String(), Type: RevisionCommit}, nil
}

// RemoteStatus reports whether the remote branch has moved past rev. Tags
// and commits never go stale.
func (p *Project) RemoteStatus(ctx context.Context, rev RevisionInfo) (outdated bool, err error) {
	if rev.Type != RevisionBranch || p.url == "" {
		return false, nil
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{p.url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: p.auth})
	if err != nil {
		return false, fmt.Errorf("failed to list remote refs: %w", err)
	}

	branch := plumbing.NewBranchReferenceName(rev.Name)
	for _, ref := range refs {
		if ref.Name() == branch {
			return ref.Hash().String() != rev.Commit, nil
		}
	}
	return false, nil
}

// CheckRemoteStatus logs a warning when the remote branch has new commits.
// Failures are logged at debug level only.
func (p *Project) CheckRemoteStatus(ctx context.Context, rev RevisionInfo) {
	outdated, err := p.RemoteStatus(ctx, rev)
	if err != nil {
		slog.Debug("cannot check remote status", "project", p.name, "error", err)
		return
	}
	if outdated {
		slog.Warn("project is not up to date, use --latest to update it",
			"project", p.name, "revision", rev.Name)
	}
}

// Revisions lists the branches and tags of a cached project.
func (p *Project) Revisions(_ context.Context) (Revisions, error) {
	repo, err := p.open()
	if err != nil {
		return Revisions{}, err
	}

	refs, err := repo.References()
	if err != nil {
		return Revisions{}, fmt.Errorf("failed to list references: %w", err)
	}

	var (
		revs     Revisions
		branches = map[string]bool{}
	)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		switch name := ref.Name(); {
		case name.IsRemote():
			short := strings.TrimPrefix(name.Short(), git.DefaultRemoteName+"/")
			if short != "HEAD" {
				branches[short] = true
			}
		case name.IsBranch():
			branches[name.Short()] = true
		case name.IsTag():
			revs.Tags = append(revs.Tags, name.Short())
		}
		return nil
	})
	if err != nil {
		return Revisions{}, fmt.Errorf("failed to list references: %w", err)
	}

	for branch := range branches {
		revs.Branches = append(revs.Branches, branch)
	}
	revs.Branches = SortTags(revs.Branches)
	revs.Tags = SortTags(revs.Tags)
	return revs, nil
}

// HasLocalChanges reports whether the working tree differs from HEAD.
func (p *Project) HasLocalChanges() (bool, error) {
	repo, err := p.open()
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return !status.IsClean(), nil
}

func (p *Project) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(p.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotDownloaded, p.name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.dir, err)
	}
	return repo, nil
}

// findTag finds a tag by name, trying both with and without a "v" prefix,
// and dereferences annotated tags to their commit.
func findTag(repo *git.Repository, name string) (string, plumbing.Hash, bool) {
	names := []string{name}
	if noV, found := strings.CutPrefix(name, "v"); found {
		names = append(names, noV)
	} else {
		names = append(names, "v"+name)
	}

	for _, tagName := range names {
		ref, err := repo.Reference(plumbing.NewTagReferenceName(tagName), true)
		if err != nil {
			continue
		}
		if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
			return tagName, tagObj.Target, true
		}
		return tagName, ref.Hash(), true
	}
	return "", plumbing.ZeroHash, false
}

// tagsAt returns the tags pointing at commit, newest version first.
func tagsAt(repo *git.Repository, commit plumbing.Hash) []string {
	iter, err := repo.Tags()
	if err != nil {
		return nil
	}

	var tags []string
	_ = iter.ForEach(func(ref *plumbing.Reference) error { //nolint:errcheck // callback never fails
		target := ref.Hash()
		if tagObj, err := repo.TagObject(target); err == nil {
			target = tagObj.Target
		}
		if target == commit {
			tags = append(tags, ref.Name().Short())
		}
		return nil
	})
	return SortTags(tags)
}

func isHashPrefix(s string) bool {
	if len(s) < 4 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:7]
}
