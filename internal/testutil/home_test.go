// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSetConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	cleanup := SetConfigHome(t, tmpDir)
	defer cleanup()

	got, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir() error = %v", err)
	}

	want := tmpDir
	if runtime.GOOS == "darwin" {
		want = filepath.Join(tmpDir, "Library", "Application Support")
	}
	if got != want {
		t.Errorf("UserConfigDir() = %q, want %q", got, want)
	}
}

func TestMustSetenv_Restores(t *testing.T) {
	const key = "FLOWRUN_TESTUTIL_PROBE"

	cleanup := MustSetenv(t, key, "first")
	inner := MustSetenv(t, key, "second")
	if os.Getenv(key) != "second" {
		t.Fatalf("%s = %q, want second", key, os.Getenv(key))
	}

	inner()
	if os.Getenv(key) != "first" {
		t.Errorf("after inner cleanup %s = %q, want first", key, os.Getenv(key))
	}

	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset after cleanup", key)
	}
}

func TestMustWriteFile(t *testing.T) {
	t.Parallel()

	path := MustWriteFile(t, filepath.Join(t.TempDir(), "a", "b", "c.txt"), "hello")
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
}
