// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/flowrun/flowrun/internal/history"
	"github.com/flowrun/flowrun/internal/launch"
	"github.com/flowrun/flowrun/pkg/types"
)

// ErrScriptFailed is wrapped by errors that kept a script from running to
// completion (parse failures, interpreter errors). A script that runs and
// exits non-zero is not an error.
var ErrScriptFailed = errors.New("script execution failed")

type (
	// History records runs. *history.Store implements it.
	History interface {
		Start(rec history.Record) (history.Record, error)
		Finish(runName string, session uuid.UUID, status history.Status) error
	}

	// Clock supplies the current time.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// Options configures an Engine. Zero values fall back to the process
	// working directory, the system temp dir and discarded output.
	Options struct {
		// WorkDir is the launch directory the script runs in.
		WorkDir string
		// TempDir holds the params file of each run.
		TempDir string
		// InheritEnv passes the host environment to scripts.
		InheritEnv bool

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		// History is optional; nil disables run records.
		History History
		Clock   Clock
	}

	// Launch is everything a run needs.
	Launch struct {
		Ref       launch.PipelineReference
		RunName   string
		Params    *launch.ParameterMap
		SessionID uuid.UUID
		// Resumed marks a run that reuses a previous session id.
		Resumed bool
		// TracePath is the trace file to write; empty disables tracing.
		TracePath string
		// CommandLine is stored in the history record.
		CommandLine string
	}

	// Engine runs pipeline scripts with the embedded shell.
	Engine struct {
		opts Options
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Engine{opts: opts}
}

// Run executes the launch and returns the script's exit status. Temporary
// scripts (stdin, copied pipes) are removed once the run ends, whatever its
// outcome.
func (e *Engine) Run(ctx context.Context, l Launch) (types.ExitCode, error) {
	if l.Ref == nil {
		return 1, fmt.Errorf("%w: no pipeline to run", ErrScriptFailed)
	}
	if tmp, ok := launch.TemporaryFile(l.Ref); ok {
		defer func() { _ = os.Remove(tmp) }() // Best-effort cleanup
	}

	prog, err := parseScript(l.Ref.ScriptPath())
	if err != nil {
		return 1, err
	}

	paramsFile, err := e.writeParamsFile(l.Params)
	if err != nil {
		return 1, err
	}
	defer func() { _ = os.Remove(paramsFile) }() // Best-effort cleanup

	workDir := e.opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return 1, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	env := buildRunEnv(l, e.opts.InheritEnv, paramsFile)
	runner, err := interp.New(
		interp.Dir(workDir),
		interp.Env(expand.ListEnviron(envToSlice(env)...)),
		interp.StdIO(e.opts.Stdin, e.opts.Stdout, e.opts.Stderr),
	)
	if err != nil {
		return 1, fmt.Errorf("%w: failed to create interpreter: %w", ErrScriptFailed, err)
	}

	if e.opts.History != nil {
		if _, err := e.opts.History.Start(history.Record{
			RunName:   l.RunName,
			Revision:  RevisionLabel(l.Ref),
			SessionID: l.SessionID,
			Command:   l.CommandLine,
		}); err != nil {
			return 1, err
		}
	}

	slog.Debug("starting run",
		"name", l.RunName,
		"session", l.SessionID,
		"script", l.Ref.ScriptPath(),
		"resumed", l.Resumed,
		"params", paramCount(l.Params))

	start := e.opts.Clock.Now()
	code, runErr := exitCode(runner.Run(ctx, prog))
	end := e.opts.Clock.Now()

	if e.opts.History != nil {
		status := history.StatusOK
		if runErr != nil || !code.IsSuccess() {
			status = history.StatusErr
		}
		if err := e.opts.History.Finish(l.RunName, l.SessionID, status); err != nil {
			slog.Warn("failed to finalize run history", "name", l.RunName, "error", err)
		}
	}

	if l.TracePath != "" {
		tr := trace{
			RunName:   l.RunName,
			SessionID: l.SessionID,
			Script:    l.Ref.ScriptPath(),
			Revision:  RevisionLabel(l.Ref),
			Resumed:   l.Resumed,
			Start:     start,
			End:       end,
			ExitCode:  code,
			Err:       runErr,
		}
		if err := tr.write(l.TracePath); err != nil {
			slog.Warn("failed to write trace file", "path", l.TracePath, "error", err)
		}
	}

	return code, runErr
}

func parseScript(path string) (*syntax.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptFailed, err)
	}
	defer f.Close()

	prog, err := syntax.NewParser().Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse script: %w", ErrScriptFailed, err)
	}
	return prog, nil
}

// writeParamsFile stores the parameters as an ordered JSON object.
func (e *Engine) writeParamsFile(params *launch.ParameterMap) (string, error) {
	if params == nil {
		params = launch.NewParameterMap()
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters: %w", err)
	}
	data = append(data, '\n')

	f, err := os.CreateTemp(e.opts.TempDir, "flowrun-params-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create params file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()           // Best-effort close on error path
		_ = os.Remove(f.Name()) // Best-effort cleanup on error path
		return "", fmt.Errorf("failed to write params file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name()) // Best-effort cleanup on error path
		return "", fmt.Errorf("failed to close params file: %w", err)
	}
	return f.Name(), nil
}

// exitCode maps the interpreter result to an exit status. Only failures
// that are not a script exit are returned as errors.
func exitCode(err error) (types.ExitCode, error) {
	if err == nil {
		return 0, nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return types.ExitCode(status), nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 1, err
	}
	return 1, fmt.Errorf("%w: %w", ErrScriptFailed, err)
}

// RevisionLabel is the revision column of the history record.
func RevisionLabel(ref launch.PipelineReference) string {
	switch r := ref.(type) {
	case *launch.RemoteProject:
		if !r.RevisionInfo.IsZero() {
			return r.RevisionInfo.String()
		}
	case *launch.LocalScript:
		if !r.Revision.IsZero() {
			return r.Revision.String()
		}
		if len(r.ContentID) >= 12 {
			return "sha256:" + r.ContentID[:12]
		}
	}
	return "-"
}

func paramCount(params *launch.ParameterMap) int {
	if params == nil {
		return 0
	}
	return params.Len()
}
