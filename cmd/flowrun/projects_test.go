// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"

	"github.com/flowrun/flowrun/internal/launch"
	"github.com/flowrun/flowrun/internal/testutil"
)

// newRemoteProject creates a Git repository with a manifest and main script,
// tagged v1.0.0, and returns its file:// URL. The file transport needs the
// git binary.
func newRemoteProject(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := filepath.Join(t.TempDir(), "pipeline")
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	testutil.MustWriteFile(t, filepath.Join(dir, "flowrun.cue"), "name: \"pipeline\"\ndescription: \"Test pipeline\"\nversion: \"1.0.0\"\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "main.sh"), "echo \"remote $PARAM_WHO\"\n")

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	sig := &object.Signature{Name: "flowrun test", Email: "test@flowrun.invalid", When: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	hash, err := wt.Commit("initial commit", &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName("v1.0.0"), hash)); err != nil {
		t.Fatalf("SetReference() error = %v", err)
	}
	return "file://" + filepath.ToSlash(dir)
}

func TestProjectCommands(t *testing.T) {
	env := newTestEnv(t)
	assets := t.TempDir()
	env.writeConfig(t, `assets_dir: "`+filepath.ToSlash(assets)+`"`)
	url := newRemoteProject(t)

	if code := env.exec(t, "list"); code != 0 {
		t.Fatalf("list: exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "No projects downloaded") {
		t.Errorf("list on empty cache = %q", env.stdout)
	}

	env.stdout.Reset()
	if code := env.exec(t, "pull", url, "-r", "v1.0.0"); code != 0 {
		t.Fatalf("pull: exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "v1.0.0") {
		t.Errorf("pull output = %q, want the checked out tag", env.stdout)
	}

	env.stdout.Reset()
	if code := env.exec(t, "list"); code != 0 {
		t.Fatalf("list: exit code = %d, stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "pipeline") {
		t.Errorf("list = %q, want the pulled project", env.stdout)
	}

	env.stdout.Reset()
	if code := env.exec(t, "info", "pipeline", "-o", "json"); code != 0 {
		t.Fatalf("info: exit code = %d, stderr: %s", code, env.stderr)
	}
	var info projectInfo
	if err := json.Unmarshal(env.stdout.Bytes(), &info); err != nil {
		t.Fatalf("info is not JSON: %v\n%s", err, env.stdout)
	}
	if info.Manifest.Description != "Test pipeline" || info.Revision.Name != "v1.0.0" {
		t.Errorf("info = %+v", info)
	}
	if len(info.Revisions.Tags) != 1 || info.Revisions.Tags[0] != "v1.0.0" {
		t.Errorf("tags = %v", info.Revisions.Tags)
	}

	env.stdout.Reset()
	if code := env.exec(t, "info", "pipeline", "-o", "yaml"); code != 0 {
		t.Fatalf("info: exit code = %d, stderr: %s", code, env.stderr)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(env.stdout.Bytes(), &fromYAML); err != nil || fromYAML["name"] != info.Name {
		t.Errorf("yaml info = %v, %v", fromYAML, err)
	}

	env.stdout.Reset()
	if code := env.exec(t, "info", "pipeline"); code != 0 {
		t.Fatalf("info: exit code = %d, stderr: %s", code, env.stderr)
	}
	for _, want := range []string{"Test pipeline", "1.0.0", "main.sh"} {
		if !strings.Contains(env.stdout.String(), want) {
			t.Errorf("info text missing %q:\n%s", want, env.stdout)
		}
	}

	if code := env.exec(t, "drop", "pipeline"); code != 0 {
		t.Fatalf("drop: exit code = %d, stderr: %s", code, env.stderr)
	}
	if _, err := os.Stat(info.Dir); !os.IsNotExist(err) {
		t.Errorf("drop left %s behind: %v", info.Dir, err)
	}

	env.stderr.Reset()
	if code := env.exec(t, "info", "pipeline"); code != 1 {
		t.Errorf("info after drop: exit code = %d, want 1", code)
	}
	if !strings.Contains(env.stderr.String(), "unknown project") {
		t.Errorf("stderr = %q", env.stderr)
	}
}

func TestRun_RemoteProject(t *testing.T) {
	env := newTestEnv(t)
	assets := t.TempDir()
	env.writeConfig(t, `assets_dir: "`+filepath.ToSlash(assets)+`"`)
	url := newRemoteProject(t)

	if code := env.exec(t, "run", url, "-r", "v1.0.0", "--who", "world"); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}

	remote, ok := env.runner.last(t).Ref.(*launch.RemoteProject)
	if !ok {
		t.Fatalf("Ref = %T, want *launch.RemoteProject", env.runner.last(t).Ref)
	}
	if remote.Revision != "v1.0.0" || remote.RevisionInfo.Name != "v1.0.0" {
		t.Errorf("remote = %+v", remote)
	}
	if !strings.HasPrefix(remote.Script, assets) {
		t.Errorf("Script = %q, want a path in the cache %s", remote.Script, assets)
	}

	env.stderr.Reset()
	if code := env.exec(t, "run", url, "-r", "v9.9.9"); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(env.stderr.String(), "v9.9.9") {
		t.Errorf("stderr = %q", env.stderr)
	}
}
