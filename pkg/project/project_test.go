// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-git/go-git/v5"
)

func TestManager_LocalProject(t *testing.T) {
	t.Parallel()

	t.Run("plain directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		m := newTestManager(t)

		p, err := m.LocalProject(dir)
		if err != nil {
			t.Fatalf("LocalProject() error = %v", err)
		}
		if !p.IsLocal() || p.Name() != filepath.Base(dir) {
			t.Errorf("unexpected project %q local=%v", p.Name(), p.IsLocal())
		}
		if p.MainScript() != filepath.Join(dir, DefaultMainScript) {
			t.Errorf("MainScript() = %q", p.MainScript())
		}
		if p.IsRunnable() {
			t.Error("directory without main script should not be runnable")
		}

		rev, err := p.RevisionInfo(context.Background())
		if err != nil || !rev.IsZero() {
			t.Errorf("RevisionInfo() = %+v, %v; want zero value", rev, err)
		}
	})

	t.Run("manifest main script inside a work tree", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, hash := initRepo(t, dir, map[string]string{
			ManifestFile:  `name: "etl"` + "\n" + `mainScript: "flows/run.sh"`,
			"flows/run.sh": "echo run\n",
		})

		p, err := newTestManager(t).LocalProject(dir)
		if err != nil {
			t.Fatalf("LocalProject() error = %v", err)
		}
		if p.Name() != "etl" {
			t.Errorf("Name() = %q, want etl", p.Name())
		}
		if !p.IsRunnable() {
			t.Error("expected runnable project")
		}

		rev, err := p.RevisionInfo(context.Background())
		if err != nil {
			t.Fatalf("RevisionInfo() error = %v", err)
		}
		if rev.Commit != hash.String() || rev.Type != RevisionBranch || rev.Name != "master" {
			t.Errorf("RevisionInfo() = %+v", rev)
		}
	})

	t.Run("invalid manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`mainScript: 42`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := newTestManager(t).LocalProject(dir); err == nil {
			t.Error("expected manifest error")
		}
	})
}

func TestProject_Checkout(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	key := "local/srv/etl"
	repo, first := cachedRepo(t, m, key, map[string]string{"main.sh": "echo v1\n"})
	dir := filepath.Join(m.root, filepath.FromSlash(key))

	if _, err := repo.CreateTag("v1.0.0", first, &git.CreateTagOptions{Tagger: testSignature, Message: "release 1.0.0"}); err != nil {
		t.Fatal(err)
	}
	second := commitFiles(t, repo, dir, map[string]string{"main.sh": "echo v2\n"}, "second")
	if _, err := repo.CreateTag("light", second, nil); err != nil {
		t.Fatal(err)
	}
	setBranch(t, repo, "dev", first)

	ctx := context.Background()
	tests := []struct {
		name     string
		revision string
		want     RevisionInfo
		content  string
	}{
		{name: "default branch", revision: "", want: RevisionInfo{Name: "master", Commit: second.String(), Type: RevisionBranch}, content: "echo v2\n"},
		{name: "local branch", revision: "dev", want: RevisionInfo{Name: "dev", Commit: first.String(), Type: RevisionBranch}, content: "echo v1\n"},
		{name: "annotated tag", revision: "v1.0.0", want: RevisionInfo{Name: "v1.0.0", Commit: first.String(), Type: RevisionTag}, content: "echo v1\n"},
		{name: "tag without v prefix", revision: "1.0.0", want: RevisionInfo{Name: "v1.0.0", Commit: first.String(), Type: RevisionTag}, content: "echo v1\n"},
		{name: "lightweight tag", revision: "light", want: RevisionInfo{Name: "light", Commit: second.String(), Type: RevisionTag}, content: "echo v2\n"},
		{name: "commit prefix", revision: first.String()[:10], want: RevisionInfo{Name: first.String()[:10], Commit: first.String(), Type: RevisionCommit}, content: "echo v1\n"},
	}

	// Subtests share one work tree, so they run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.Project(ctx, "file:///srv/etl")
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if err := p.Checkout(ctx, tt.revision); err != nil {
				t.Fatalf("Checkout(%q) error = %v", tt.revision, err)
			}

			script, rev, err := p.ScriptFile(ctx)
			if err != nil {
				t.Fatalf("ScriptFile() error = %v", err)
			}
			if rev != tt.want {
				t.Errorf("revision = %+v, want %+v", rev, tt.want)
			}
			data, err := os.ReadFile(script)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.content {
				t.Errorf("script content = %q, want %q", data, tt.content)
			}
		})
	}

	t.Run("unknown revision", func(t *testing.T) {
		p, err := m.Project(ctx, "file:///srv/etl")
		if err != nil {
			t.Fatal(err)
		}
		err = p.Checkout(ctx, "no-such-branch")
		var revErr *UnknownRevisionError
		if !errors.As(err, &revErr) || revErr.Revision != "no-such-branch" {
			t.Fatalf("Checkout() error = %v, want UnknownRevisionError", err)
		}
		if !errors.Is(err, ErrProject) {
			t.Error("unknown revision should be a project domain error")
		}
	})
}

func TestProject_ManifestDefaultBranch(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	key := "local/srv/flows"
	repo, first := cachedRepo(t, m, key, map[string]string{
		ManifestFile: `defaultBranch: "stable"`,
		"main.sh":    "echo stable\n",
	})
	dir := filepath.Join(m.root, filepath.FromSlash(key))
	setBranch(t, repo, "stable", first)
	commitFiles(t, repo, dir, map[string]string{"main.sh": "echo tip\n"}, "tip")

	ctx := context.Background()
	p, err := m.Project(ctx, "file:///srv/flows")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Checkout(ctx, ""); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	rev, err := p.RevisionInfo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rev.Name != "stable" || rev.Commit != first.String() {
		t.Errorf("RevisionInfo() = %+v, want stable at %s", rev, first)
	}
}

func TestProject_ScriptFileMissing(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	cachedRepo(t, m, "local/srv/empty", map[string]string{"README.md": "nothing to run\n"})

	ctx := context.Background()
	p, err := m.Project(ctx, "file:///srv/empty")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsRunnable() {
		t.Error("project without main script should not be runnable")
	}
	_, _, err = p.ScriptFile(ctx)
	if !errors.Is(err, ErrMissingMainScript) {
		t.Errorf("ScriptFile() error = %v, want ErrMissingMainScript", err)
	}
}

func TestProject_NotDownloaded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, err := newTestManager(t).Project(ctx, "acme/etl")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsDownloaded() || p.IsRunnable() {
		t.Error("project should not be downloaded")
	}
	if p.URL() != "https://github.com/acme/etl" {
		t.Errorf("URL() = %q", p.URL())
	}
	if err := p.Checkout(ctx, "main"); !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("Checkout() error = %v, want ErrNotDownloaded", err)
	}
	if err := p.UpdateModules(ctx); !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("UpdateModules() error = %v, want ErrNotDownloaded", err)
	}
}

func TestProject_RevisionsAndLocalChanges(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	key := "local/srv/etl"
	repo, first := cachedRepo(t, m, key, map[string]string{"main.sh": "echo\n"})
	dir := filepath.Join(m.root, filepath.FromSlash(key))
	setBranch(t, repo, "dev", first)
	for _, tag := range []string{"v0.1.0", "v0.10.0", "v0.2.0"} {
		if _, err := repo.CreateTag(tag, first, nil); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	p, err := m.Project(ctx, "file:///srv/etl")
	if err != nil {
		t.Fatal(err)
	}

	revs, err := p.Revisions(ctx)
	if err != nil {
		t.Fatalf("Revisions() error = %v", err)
	}
	if !slices.Equal(revs.Branches, []string{"dev", "master"}) {
		t.Errorf("Branches = %v", revs.Branches)
	}
	if !slices.Equal(revs.Tags, []string{"v0.10.0", "v0.2.0", "v0.1.0"}) {
		t.Errorf("Tags = %v", revs.Tags)
	}

	if dirty, err := p.HasLocalChanges(); err != nil || dirty {
		t.Fatalf("HasLocalChanges() = %v, %v; want clean", dirty, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.sh"), []byte("echo changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if dirty, err := p.HasLocalChanges(); err != nil || !dirty {
		t.Fatalf("HasLocalChanges() = %v, %v; want dirty", dirty, err)
	}
}

func TestManager_ListAndBareNames(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	cachedRepo(t, m, "github.com/acme/etl", map[string]string{"main.sh": "echo\n"})
	cachedRepo(t, m, "github.com/acme/reports", map[string]string{"main.sh": "echo\n"})
	cachedRepo(t, m, "gitlab.com/other/etl", map[string]string{"main.sh": "echo\n"})

	projects, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, p := range projects {
		names = append(names, p.Name())
	}
	want := []string{"github.com/acme/etl", "github.com/acme/reports", "gitlab.com/other/etl"}
	if !slices.Equal(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	ctx := context.Background()

	p, err := m.Project(ctx, "reports")
	if err != nil {
		t.Fatalf("Project(reports) error = %v", err)
	}
	if p.Name() != "github.com/acme/reports" {
		t.Errorf("Project(reports) = %q", p.Name())
	}

	_, err = m.Project(ctx, "etl")
	var ambiguous *AmbiguousProjectError
	if !errors.As(err, &ambiguous) || len(ambiguous.Candidates) != 2 {
		t.Errorf("Project(etl) error = %v, want AmbiguousProjectError", err)
	}

	_, err = m.Project(ctx, "reprts")
	var unknown *UnknownProjectError
	if !errors.As(err, &unknown) {
		t.Fatalf("Project(reprts) error = %v, want UnknownProjectError", err)
	}
	if !slices.Contains(unknown.Suggestions, "github.com/acme/reports") {
		t.Errorf("suggestions = %v", unknown.Suggestions)
	}
}

func TestManager_ListEmptyRoot(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.root = filepath.Join(m.root, "missing")

	projects, err := m.List()
	if err != nil || len(projects) != 0 {
		t.Errorf("List() = %v, %v; want empty", projects, err)
	}
}

func TestManager_Drop(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	cachedRepo(t, m, "github.com/acme/etl", map[string]string{"main.sh": "echo\n"})
	dir := filepath.Join(m.root, "github.com", "acme", "etl")
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("tmp"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Drop(ctx, "acme/etl", false); !errors.Is(err, ErrLocalChanges) {
		t.Fatalf("Drop() error = %v, want ErrLocalChanges", err)
	}

	if err := m.Drop(ctx, "acme/etl", true); err != nil {
		t.Fatalf("Drop(force) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.root, "github.com")); !os.IsNotExist(err) {
		t.Errorf("empty parent directories should be pruned, stat error = %v", err)
	}

	if err := m.Drop(ctx, "acme/etl", false); !errors.Is(err, ErrUnknownProject) {
		t.Errorf("second Drop() error = %v, want ErrUnknownProject", err)
	}
}

func TestProject_DownloadAndUpdate(t *testing.T) {
	t.Parallel()
	requireGit(t)

	upstreamDir := t.TempDir()
	upstream, first := initRepo(t, upstreamDir, map[string]string{"main.sh": "echo v1\n"})
	if _, err := upstream.CreateTag("v1.0.0", first, nil); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t)
	ctx := context.Background()
	url := "file://" + filepath.ToSlash(upstreamDir)

	p, err := m.Project(ctx, url)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	summary, err := p.Download(ctx)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if summary == "" || !p.IsRunnable() {
		t.Fatalf("Download() summary %q, runnable %v", summary, p.IsRunnable())
	}

	if err := p.Checkout(ctx, ""); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	_, rev, err := p.ScriptFile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if outdated, err := p.RemoteStatus(ctx, rev); err != nil || outdated {
		t.Errorf("RemoteStatus() = %v, %v; want up to date", outdated, err)
	}

	second := commitFiles(t, upstream, upstreamDir, map[string]string{"main.sh": "echo v2\n"}, "second")
	if outdated, err := p.RemoteStatus(ctx, rev); err != nil || !outdated {
		t.Errorf("RemoteStatus() = %v, %v; want outdated", outdated, err)
	}

	// A fresh handle sees the clone created above.
	p, err = m.Project(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Download(ctx); err != nil {
		t.Fatalf("second Download() error = %v", err)
	}
	if err := p.Checkout(ctx, ""); err != nil {
		t.Fatal(err)
	}
	script, rev, err := p.ScriptFile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rev.Commit != second.String() {
		t.Errorf("after update commit = %s, want %s", rev.Commit, second)
	}
	data, err := os.ReadFile(script)
	if err != nil || string(data) != "echo v2\n" {
		t.Errorf("script = %q, %v", data, err)
	}

	if err := p.Checkout(ctx, "v1.0.0"); err != nil {
		t.Fatalf("Checkout(v1.0.0) error = %v", err)
	}
	if err := p.UpdateModules(ctx); err != nil {
		t.Errorf("UpdateModules() error = %v", err)
	}
}

func TestProject_DownloadUnknownRepository(t *testing.T) {
	t.Parallel()
	requireGit(t)

	m := newTestManager(t)
	ctx := context.Background()
	p, err := m.Project(ctx, "file://"+filepath.ToSlash(filepath.Join(t.TempDir(), "missing")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Download(ctx); err == nil {
		t.Fatal("expected download error")
	}
	if p.IsDownloaded() {
		t.Error("failed clone should be cleaned up")
	}
}
