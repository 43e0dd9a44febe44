// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowrun/flowrun/internal/issue"
	"github.com/flowrun/flowrun/internal/launch"
	"github.com/flowrun/flowrun/internal/runtime"
	"github.com/flowrun/flowrun/pkg/project"
)

// skipSetupAnnotation marks commands that work without a loaded configuration.
const skipSetupAnnotation = "flowrun/skip-setup"

// action wraps a command handler. It loads the configuration first (unless the
// command parses its own flags or opts out) and turns any returned error into a
// printed message and a process exit code.
func (a *App) action(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		op := commandOperation(cmd)
		if !cmd.DisableFlagParsing && cmd.Annotations[skipSetupAnnotation] == "" {
			if err := a.setup(cmd.Context()); err != nil {
				a.report(err, op)
				return nil
			}
		}
		if err := fn(cmd, args); err != nil {
			a.report(err, op)
		}
		return nil
	}
}

// commandOperation turns the short description of cmd into the operation of
// its error messages ("Run a pipeline script" -> "run a pipeline script").
func commandOperation(cmd *cobra.Command) string {
	if cmd.Short == "" {
		return "run " + cmd.Name()
	}
	return strings.ToLower(cmd.Short[:1]) + cmd.Short[1:]
}

// report prints err to stderr and records the exit code. op is the operation
// named in messages of errors that do not carry one.
func (a *App) report(err error, op string) {
	a.exitCode = 1

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		switch codeErr := exitErr.Code.Validate(); {
		case codeErr != nil:
			err = errors.Join(exitErr.Err, codeErr)
		case exitErr.Err == nil:
			a.exitCode = exitErr.Code
			return
		default:
			a.exitCode = exitErr.Code
			err = exitErr.Err
		}
	}

	ae := classifyError(err, op)
	fmt.Fprintf(a.deps.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(ae, a.verbose))

	if !a.verbose || ae.IssueID == 0 {
		return
	}
	if is := issue.Get(ae.IssueID); is != nil {
		if rendered, renderErr := is.Render(a.markdownStyle()); renderErr == nil {
			fmt.Fprint(a.deps.Stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// classifyError maps launch and execution failures to issue catalog entries.
// Errors that already carry an ActionableError are returned as is.
func classifyError(err error, op string) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().WithOperation(op).Wrap(err)

	var (
		invalid     *launch.InvalidInvocationError
		parseErr    *launch.ParseError
		repoErr     *launch.RepositoryError
		unknownProj *project.UnknownProjectError
		ambiguous   *project.AmbiguousProjectError
		unknownRev  *project.UnknownRevisionError
	)

	switch {
	case errors.As(err, &invalid):
		classifyInvocation(ctx, invalid.Reason)
	case errors.As(err, &parseErr):
		ctx.WithOperation("parse params file").
			WithResource(parseErr.Path).
			WithIssue(issue.ParamsFileParseErrorId)
	case errors.As(err, &unknownProj):
		ctx.WithOperation("find project").WithResource(unknownProj.Name).WithIssue(issue.ProjectNotFoundId)
		for _, s := range unknownProj.Suggestions {
			ctx.WithSuggestion("Did you mean " + CmdStyle.Render(s) + "?")
		}
	case errors.As(err, &ambiguous):
		ctx.WithOperation("find project").WithResource(ambiguous.Name).WithIssue(issue.ProjectNotFoundId)
		ctx.WithSuggestion("Use the full owner/repo name")
	case errors.Is(err, project.ErrInvalidName), errors.Is(err, project.ErrMissingMainScript):
		ctx.WithOperation("find project").WithIssue(issue.ProjectNotFoundId)
	case errors.As(err, &unknownRev):
		ctx.WithOperation("checkout revision").
			WithResource(unknownRev.Revision).
			WithIssue(issue.RevisionNotFoundId).
			WithSuggestion("Run 'flowrun info " + unknownRev.Project + "' to list revisions")
	case errors.As(err, &repoErr):
		ctx.WithOperation("prepare project").
			WithResource(repoErr.RepoID).
			WithIssue(issue.ProjectCorruptedId).
			WithSuggestion("Run 'flowrun drop --force " + repoErr.RepoID + "' and pull it again")
	case errors.Is(err, project.ErrLocalChanges):
		ctx.WithSuggestion("Commit or discard the changes, or use --force")
	case errors.Is(err, runtime.ErrScriptFailed):
		ctx.WithOperation("run pipeline script").WithIssue(issue.ScriptExecutionFailedId)
	case errors.Is(err, context.Canceled):
		ctx.WithSuggestion("The command was interrupted")
	}

	return ctx.Build()
}

func classifyInvocation(ctx *issue.ErrorContext, reason string) {
	switch reason {
	case launch.ReasonNoStdin:
		ctx.WithOperation("read pipeline from stdin").WithIssue(issue.StdinNotAvailableId)
	case launch.ReasonRevisionWithStdin, launch.ReasonRevisionWithLocal:
		ctx.WithOperation("select revision").
			WithIssue(issue.RevisionNotAllowedId).
			WithSuggestion("Drop the -r/--revision option")
	case launch.ReasonReservedRunName, launch.ReasonNameAlreadyUsed, launch.ReasonInvalidRunName:
		ctx.WithOperation("allocate run name").
			WithIssue(issue.RunNameUnavailableId).
			WithSuggestion("Choose another --name or omit it")
	case launch.ReasonParamsFileMissing, launch.ReasonBadParamsFileExtension:
		ctx.WithOperation("read params file").
			WithIssue(issue.ParamsFileInvalidId).
			WithSuggestion("Use an existing .json, .yml or .yaml file")
	case launch.ReasonUnknownResumeSession:
		ctx.WithOperation("resume session").
			WithIssue(issue.ResumeSessionNotFoundId).
			WithSuggestion("Run 'flowrun log' to list recorded runs")
	}
}
