// SPDX-License-Identifier: MPL-2.0

package project

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var testSignature = &object.Signature{
	Name:  "flowrun test",
	Email: "test@flowrun.invalid",
	When:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
}

// initRepo creates a Git repository in dir with files committed on master.
func initRepo(t *testing.T, dir string, files map[string]string) (*git.Repository, plumbing.Hash) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	return repo, commitFiles(t, repo, dir, files, "initial commit")
}

// commitFiles writes files into the work tree and commits them.
func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) plumbing.Hash {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: testSignature, Committer: testSignature})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return hash
}

func setBranch(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()

	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)); err != nil {
		t.Fatalf("SetReference() error = %v", err)
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager("assets", WithGetenv(func(string) string { return "" }), WithHomeDir(""))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	m.root = t.TempDir()
	return m
}

// cachedRepo creates a repository directly inside the manager cache under key.
func cachedRepo(t *testing.T, m *Manager, key string, files map[string]string) (*git.Repository, plumbing.Hash) {
	t.Helper()

	return initRepo(t, filepath.Join(m.root, filepath.FromSlash(key)), files)
}

// requireGit skips tests that clone over the file transport, which runs git-upload-pack.
func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}
