// SPDX-License-Identifier: MPL-2.0

package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// authFor picks credentials for a Git URL: SSH keys from ~/.ssh for SSH URLs,
// a token from the environment for HTTP(S) URLs, nothing for local ones.
func (m *Manager) authFor(gitURL string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(gitURL, "git@"), strings.HasPrefix(gitURL, "ssh://"):
		return trySSHAuth(m.homeDir)
	case strings.HasPrefix(gitURL, "https://"), strings.HasPrefix(gitURL, "http://"):
		return tryHTTPAuth(m.getenv)
	default:
		return nil
	}
}

func trySSHAuth(homeDir string) transport.AuthMethod {
	if homeDir == "" {
		return nil
	}

	keyPaths := []string{
		filepath.Join(homeDir, ".ssh", "id_ed25519"),
		filepath.Join(homeDir, ".ssh", "id_rsa"),
		filepath.Join(homeDir, ".ssh", "id_ecdsa"),
	}

	for _, keyPath := range keyPaths {
		if _, err := os.Stat(keyPath); err == nil {
			auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
			if err == nil {
				return auth
			}
		}
	}

	return nil
}

func tryHTTPAuth(getenv func(string) string) transport.AuthMethod {
	if token := getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}

	if token := getenv("GITLAB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "gitlab-ci-token", Password: token}
	}

	if token := getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}

	return nil
}
