// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowrun/flowrun/pkg/types"
)

// DefaultTraceName returns the trace file name used when --with-trace is
// given without a value.
func DefaultTraceName(now time.Time) string {
	return "trace-" + now.UTC().Format("20060102-150405") + ".txt"
}

type trace struct {
	RunName   string
	SessionID uuid.UUID
	Script    string
	Revision  string
	Resumed   bool
	Start     time.Time
	End       time.Time
	ExitCode  types.ExitCode
	Err       error
}

func (t trace) write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run\t%s\n", t.RunName)
	fmt.Fprintf(&b, "session\t%s\n", t.SessionID)
	fmt.Fprintf(&b, "script\t%s\n", t.Script)
	fmt.Fprintf(&b, "revision\t%s\n", t.Revision)
	fmt.Fprintf(&b, "resumed\t%t\n", t.Resumed)
	fmt.Fprintf(&b, "start\t%s\n", t.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "end\t%s\n", t.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration\t%s\n", t.End.Sub(t.Start).Round(time.Millisecond))
	fmt.Fprintf(&b, "exit\t%s\n", t.ExitCode)
	if t.Err != nil {
		fmt.Fprintf(&b, "error\t%s\n", strings.ReplaceAll(t.Err.Error(), "\n", " "))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}
