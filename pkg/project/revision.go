// SPDX-License-Identifier: MPL-2.0

package project

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// RevisionType tells how a checked out revision was selected.
type RevisionType string

const (
	RevisionBranch RevisionType = "branch"
	RevisionTag    RevisionType = "tag"
	RevisionCommit RevisionType = "commit"
)

type (
	// RevisionInfo describes the revision a project is checked out at.
	// The zero value means "not under version control".
	RevisionInfo struct {
		Name   string       `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
		Commit string       `json:"commit,omitempty" yaml:"commit,omitempty" toml:"commit,omitempty"`
		Type   RevisionType `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	}

	// Revisions lists the branches and tags known to a cached project.
	Revisions struct {
		Branches []string `json:"branches" yaml:"branches" toml:"branches"`
		Tags     []string `json:"tags" yaml:"tags" toml:"tags"`
	}
)

// IsZero reports whether no revision information is available.
func (r RevisionInfo) IsZero() bool { return r.Commit == "" }

// ShortCommit returns the first 7 characters of the commit hash.
func (r RevisionInfo) ShortCommit() string {
	if len(r.Commit) > 7 {
		return r.Commit[:7]
	}
	return r.Commit
}

// String formats the revision as "name (abc1234)", or just the short commit.
func (r RevisionInfo) String() string {
	switch {
	case r.IsZero():
		return ""
	case r.Name == "" || r.Type == RevisionCommit:
		return r.ShortCommit()
	default:
		return r.Name + " (" + r.ShortCommit() + ")"
	}
}

// SortTags orders tags newest first: semantic versions (with or without a
// leading "v") by precedence, then every other tag alphabetically.
func SortTags(tags []string) []string {
	sorted := slices.Clone(tags)
	slices.SortStableFunc(sorted, func(a, b string) int {
		va, vb := normalizeVersion(a), normalizeVersion(b)
		validA, validB := semver.IsValid(va), semver.IsValid(vb)
		switch {
		case validA && validB:
			if c := semver.Compare(vb, va); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		case validA:
			return -1
		case validB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return sorted
}

func normalizeVersion(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
