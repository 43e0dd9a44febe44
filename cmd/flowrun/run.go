// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flowrun/flowrun/internal/history"
	"github.com/flowrun/flowrun/internal/launch"
	"github.com/flowrun/flowrun/internal/runtime"
	"github.com/flowrun/flowrun/pkg/fspath"
	"github.com/flowrun/flowrun/pkg/types"
)

var (
	errMissingPipeline = errors.New("requires a pipeline: a script path, a project name or '-'")
	errExtraArgument   = errors.New("only one pipeline can be run at a time")
	errEmptyParamName  = errors.New("parameter name cannot be empty")
)

type (
	runOptions struct {
		name       string
		revision   string
		latest     bool
		paramsFile string
		dryRun     bool
		resume     OptionalLabel
		trace      OptionalLabel
	}

	// runArgs is the command line of "flowrun run" split into flags flowrun
	// knows, the pipeline, and the pipeline's own parameters.
	runArgs struct {
		known    []string
		pipeline string
		inline   []launch.InlineParam
	}
)

func newRunCommand(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <pipeline|-> [flags] [--<param>[=<value>] ...]",
		Short: "Run a pipeline script",
		Long: `Run a pipeline script from standard input ('-'), a local script file or
project directory, or a remote project in the cache.

Options flowrun does not know are pipeline parameters: --key=value,
--key value, or a bare --key which means true. Values are typed as
boolean, integer, float or string in that order.`,
		Example: `  flowrun run main.sh --input 'data/*.csv' --threads 4
  cat main.sh | flowrun run - --dry-run
  flowrun run owner/repo -r v1.2.0 --params-file params.yaml
  flowrun run owner/repo --resume --with-trace`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.name, "name", "", "name for the run (generated when omitted)")
	fs.StringVarP(&opts.revision, "revision", "r", "", "branch, tag or commit of a remote project")
	fs.BoolVar(&opts.latest, "latest", false, "update the cached project before running")
	fs.StringVar(&opts.paramsFile, "params-file", "", "JSON or YAML file with pipeline parameters")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the launch plan without running it")
	addOptionalLabelFlag(fs, &opts.resume, "resume", "last", "resume the last run, or the given session id or run name")
	addOptionalLabelFlag(fs, &opts.trace, "with-trace", "auto", "write a trace file (default name trace-<timestamp>.txt)")

	cmd.RunE = app.action(func(cmd *cobra.Command, args []string) error {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().AddFlagSet(cmd.InheritedFlags())

		parsed, err := splitRunArgs(cmd.Flags(), args)
		if err != nil {
			return err
		}
		if err := cmd.Flags().Parse(parsed.known); err != nil {
			return err
		}
		if help, _ := cmd.Flags().GetBool("help"); help {
			return cmd.Help()
		}
		if parsed.pipeline == "" {
			return errMissingPipeline
		}

		if err := app.setup(cmd.Context()); err != nil {
			return err
		}
		return app.runPipeline(cmd.Context(), opts, parsed, "flowrun run "+strings.Join(args, " "))
	})

	return cmd
}

// splitRunArgs separates the flags registered in fs from pipeline parameters.
// A "--" ends option processing; everything after it is positional.
func splitRunArgs(fs *pflag.FlagSet, args []string) (runArgs, error) {
	var (
		out        runArgs
		positional []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)

		case arg == launch.StdinPipeline || !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)

		case strings.HasPrefix(arg, "--"):
			name, value, hasValue := strings.Cut(arg[2:], "=")
			if name == "" {
				return runArgs{}, errEmptyParamName
			}
			if flag := fs.Lookup(name); flag != nil {
				out.known = append(out.known, arg)
				if !hasValue && flag.NoOptDefVal == "" && i+1 < len(args) {
					out.known = append(out.known, args[i+1])
					i++
				}
				continue
			}
			if !hasValue {
				value = "true"
				if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
					value = args[i+1]
					i++
				}
			}
			out.inline = append(out.inline, launch.InlineParam{Key: name, Value: &value})

		default:
			takesNext, err := shorthandTakesNext(fs, arg)
			if err != nil {
				return runArgs{}, err
			}
			out.known = append(out.known, arg)
			if takesNext && i+1 < len(args) {
				out.known = append(out.known, args[i+1])
				i++
			}
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		out.pipeline = positional[0]
	default:
		return runArgs{}, fmt.Errorf("%w: unexpected %q", errExtraArgument, positional[1])
	}

	return out, nil
}

// shorthandTakesNext walks a shorthand cluster such as -vr and reports
// whether its last flag needs the following argument as its value. A flag
// that needs a value consumes the rest of the cluster (-rmain, -r=main).
func shorthandTakesNext(fs *pflag.FlagSet, arg string) (bool, error) {
	cluster := arg[1:]
	for j := 0; j < len(cluster); j++ {
		flag := fs.ShorthandLookup(cluster[j : j+1])
		if flag == nil {
			return false, fmt.Errorf("unknown shorthand flag: %q in %s", cluster[j:j+1], arg)
		}
		rest := cluster[j+1:]
		if strings.HasPrefix(rest, "=") {
			return false, nil
		}
		if flag.NoOptDefVal == "" {
			return rest == "", nil
		}
	}
	return false, nil
}

// runPipeline allocates the run identity, binds parameters, resolves the
// pipeline and hands everything to the execution engine.
func (a *App) runPipeline(ctx context.Context, opts *runOptions, parsed runArgs, cmdLine string) error {
	store := a.historyStore()

	runName, err := launch.NewNameAllocator(store).Allocate(opts.name)
	if err != nil {
		return err
	}

	session, resumed, err := resolveSession(store, opts.resume)
	if err != nil {
		return err
	}

	params, err := launch.NewParamBinder().Bind(opts.paramsFile, parsed.inline)
	if err != nil {
		return err
	}

	repo, err := a.repository()
	if err != nil {
		return err
	}
	ref, err := launch.NewResolver(repo, a.cfg.TempDir).Resolve(ctx, launch.Request{
		Pipeline: parsed.pipeline,
		Revision: opts.revision,
		Latest:   opts.latest,
		Stdin:    a.deps.Stdin,
	})
	if err != nil {
		return err
	}

	l := runtime.Launch{
		Ref:         ref,
		RunName:     runName,
		Params:      params,
		SessionID:   session,
		Resumed:     resumed,
		CommandLine: cmdLine,
	}

	if opts.dryRun {
		if tmp, ok := launch.TemporaryFile(ref); ok {
			defer os.Remove(tmp)
		}
		a.printPlan(l)
		return nil
	}

	if opts.trace.Given {
		l.TracePath = opts.trace.Label
		if l.TracePath == "" {
			l.TracePath = runtime.DefaultTraceName(a.deps.Now())
		}
		l.TracePath = fspath.ResolveAgainst(types.FilesystemPath(a.deps.WorkDir), types.FilesystemPath(l.TracePath)).String()
	}

	code, err := a.runner(store).Run(ctx, l)
	if err != nil {
		return err
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}

// resolveSession returns the session of the run being resumed, or a new one.
func resolveSession(store *history.Store, resume OptionalLabel) (id uuid.UUID, resumed bool, err error) {
	if !resume.Given {
		return uuid.New(), false, nil
	}

	rec, found, err := store.Lookup(resume.Label)
	if err != nil {
		return uuid.Nil, false, err
	}
	if !found {
		label := resume.Label
		if label == "" {
			label = launch.ReservedRunName
		}
		return uuid.Nil, false, launch.NewInvalidInvocation(launch.ReasonUnknownResumeSession, label)
	}
	return rec.SessionID, true, nil
}

// printPlan writes the launch plan of a dry run.
func (a *App) printPlan(l runtime.Launch) {
	w := a.deps.Stdout
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), value)
	}

	fmt.Fprintln(w, TitleStyle.Render("Launch plan"))
	row("kind", string(l.Ref.Kind()))
	row("script", l.Ref.ScriptPath())
	if local, ok := l.Ref.(*launch.LocalScript); ok && local.Temporary {
		row("copied from", local.Origin)
	}
	row("revision", runtime.RevisionLabel(l.Ref))
	if remote, ok := l.Ref.(*launch.RemoteProject); ok {
		row("project", CmdStyle.Render(remote.RepoID))
	}
	row("run name", CmdStyle.Render(l.RunName))
	session := l.SessionID.String()
	if l.Resumed {
		session += VerboseStyle.Render(" (resumed)")
	}
	row("session", session)

	if l.Params.Len() == 0 {
		row("params", SubtitleStyle.Render("none"))
		return
	}
	row("params", "")
	for key, value := range l.Params.All() {
		fmt.Fprintf(w, "    %s = %s %s\n", CmdStyle.Render(key), value.String(), VerboseStyle.Render("("+value.Kind().String()+")"))
	}
}
