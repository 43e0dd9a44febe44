// SPDX-License-Identifier: MPL-2.0

package project

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/flowrun/flowrun/pkg/platform"
)

// DefaultHubURL is the base URL used to expand owner/repo names.
const DefaultHubURL = "https://github.com"

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// location is where a project lives: key is the slash-separated path of the
// clone below the assets directory (e.g. "github.com/owner/repo").
type location struct {
	key string
	url string
}

// parseLocation maps a user supplied project name to its location. Bare
// repository names cannot be resolved without the cache, so they are
// reported with bare=true and an empty location.
func parseLocation(name, hubURL string) (loc location, bare bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return location{}, false, &InvalidNameError{Name: name}
	}

	switch {
	case strings.HasPrefix(name, "git@"):
		host, repoPath, found := strings.Cut(strings.TrimPrefix(name, "git@"), ":")
		if !found || host == "" {
			return location{}, false, &InvalidNameError{Name: name}
		}
		key, ok := cacheKey(host, repoPath)
		if !ok {
			return location{}, false, &InvalidNameError{Name: name}
		}
		return location{key: key, url: name}, false, nil

	case strings.Contains(name, "://"):
		u, parseErr := url.Parse(name)
		if parseErr != nil {
			return location{}, false, &InvalidNameError{Name: name}
		}
		switch u.Scheme {
		case "https", "http", "ssh", "file":
		default:
			return location{}, false, &InvalidNameError{Name: name}
		}
		host := u.Hostname()
		if host == "" {
			host = "local"
		}
		key, ok := cacheKey(host, u.Path)
		if !ok {
			return location{}, false, &InvalidNameError{Name: name}
		}
		return location{key: key, url: name}, false, nil
	}

	parts := strings.Split(name, "/")
	switch len(parts) {
	case 1:
		if !validSegment(name) {
			return location{}, false, &InvalidNameError{Name: name}
		}
		return location{}, true, nil
	case 2:
		hub, parseErr := url.Parse(hubURL)
		if parseErr != nil || hub.Host == "" {
			return location{}, false, &InvalidNameError{Name: name}
		}
		key, ok := cacheKey(hub.Hostname(), name)
		if !ok {
			return location{}, false, &InvalidNameError{Name: name}
		}
		owner, repo := parts[0], strings.TrimSuffix(parts[1], ".git")
		return location{key: key, url: strings.TrimSuffix(hubURL, "/") + "/" + owner + "/" + repo}, false, nil
	default:
		return location{}, false, &InvalidNameError{Name: name}
	}
}

// cacheKey converts a host and repository path to a path-safe cache key,
// e.g. ("github.com", "/user/repo.git") -> "github.com/user/repo".
func cacheKey(host, repoPath string) (string, bool) {
	repoPath = strings.Trim(strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git"), "/")
	if repoPath == "" {
		return "", false
	}
	for _, segment := range strings.Split(repoPath, "/") {
		if !validSegment(segment) {
			return "", false
		}
	}
	if !validSegment(host) {
		return "", false
	}
	return path.Join(host, repoPath), true
}

// validSegment reports whether s can name a directory in the cache.
func validSegment(s string) bool {
	return segmentPattern.MatchString(s) && platform.SafePathSegment(s)
}
