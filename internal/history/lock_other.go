// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package history

import "errors"

// errFlockUnavailable makes the store fall back to its in-process mutex.
var errFlockUnavailable = errors.New("flock not available on this platform")

func acquireLock(string) (*fileLock, error) {
	return nil, errFlockUnavailable
}

type fileLock struct{}

// Release is a no-op on non-Linux platforms.
func (l *fileLock) Release() {}
