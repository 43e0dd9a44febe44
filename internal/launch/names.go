// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"fmt"
	"strings"
	"unicode"
)

// ReservedRunName refers to the most recent run and cannot name a new one.
const ReservedRunName = "last"

type (
	// RunHistory is the part of the run history the allocator reads.
	RunHistory interface {
		ExistsByName(name string) (bool, error)
		// GenerateNextName returns a name absent from the history at call time.
		GenerateNextName() (string, error)
	}

	// NameAllocator hands out unique run names. It never writes the history.
	NameAllocator struct {
		history RunHistory
	}
)

// NewNameAllocator creates an allocator backed by history.
func NewNameAllocator(history RunHistory) *NameAllocator {
	return &NameAllocator{history: history}
}

// Allocate validates requested or, when empty, generates a fresh name.
// Names holding control characters are rejected since the history cannot
// store them verbatim. The check is not atomic across processes sharing
// the history.
func (a *NameAllocator) Allocate(requested string) (string, error) {
	if requested == ReservedRunName {
		return "", NewInvalidInvocation(ReasonReservedRunName, requested)
	}
	if strings.ContainsFunc(requested, unicode.IsControl) {
		return "", NewInvalidInvocation(ReasonInvalidRunName, requested)
	}

	if requested == "" {
		name, err := a.history.GenerateNextName()
		if err != nil {
			return "", fmt.Errorf("failed to generate run name: %w", err)
		}
		return name, nil
	}

	exists, err := a.history.ExistsByName(requested)
	if err != nil {
		return "", fmt.Errorf("failed to read run history: %w", err)
	}
	if exists {
		return "", NewInvalidInvocation(ReasonNameAlreadyUsed, requested)
	}
	return requested, nil
}
