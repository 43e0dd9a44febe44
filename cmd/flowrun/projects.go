// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowrun/flowrun/internal/issue"
	"github.com/flowrun/flowrun/pkg/project"
)

// projectInfo is the document printed by "flowrun info".
type projectInfo struct {
	Name      string               `json:"name" yaml:"name" toml:"name"`
	URL       string               `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Dir       string               `json:"dir" yaml:"dir" toml:"dir"`
	Manifest  *project.Manifest    `json:"manifest" yaml:"manifest" toml:"manifest"`
	Revision  project.RevisionInfo `json:"revision" yaml:"revision" toml:"revision"`
	Revisions project.Revisions    `json:"revisions" yaml:"revisions" toml:"revisions"`
}

func newPullCommand(app *App) *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "pull <project>",
		Short: "Download or update a project in the cache",
		Long: `Download a project into the cache, or fetch the latest changes when it is
already there, then check out the requested revision (the default branch
when none is given) and update its submodules.`,
		Example: `  flowrun pull owner/repo
  flowrun pull https://gitlab.com/group/pipeline.git -r v2.0.0`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&revision, "revision", "r", "", "branch, tag or commit to check out")

	cmd.RunE = app.action(func(cmd *cobra.Command, args []string) error {
		m, err := app.manager()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		p, err := m.Project(ctx, args[0])
		if err != nil {
			return err
		}
		summary, err := p.Download(ctx)
		if err != nil {
			return err
		}
		if err := p.Checkout(ctx, revision); err != nil {
			return err
		}
		if err := p.UpdateModules(ctx); err != nil {
			return err
		}
		rev, err := p.RevisionInfo(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(app.deps.Stdout, "%s %s\n", SuccessStyle.Render("✓"), summary)
		fmt.Fprintf(app.deps.Stdout, "  %s %s\n", labelStyle.Render("revision"), rev.String())
		return nil
	})

	return cmd
}

func newListCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the projects in the cache",
		Args:    cobra.NoArgs,
	}

	cmd.RunE = app.action(func(cmd *cobra.Command, _ []string) error {
		m, err := app.manager()
		if err != nil {
			return err
		}
		projects, err := m.List()
		if err != nil {
			return err
		}

		if len(projects) == 0 {
			fmt.Fprintln(app.deps.Stdout, SubtitleStyle.Render("No projects downloaded. Use 'flowrun pull <project>' to add one."))
			return nil
		}
		for _, p := range projects {
			rev, revErr := p.RevisionInfo(cmd.Context())
			line := CmdStyle.Render(p.Name())
			if revErr == nil && !rev.IsZero() {
				line += " " + VerboseStyle.Render(rev.String())
			}
			fmt.Fprintln(app.deps.Stdout, line)
		}
		return nil
	})

	return cmd
}

func newInfoCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "info <project>",
		Short: "Show details about a cached project",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatText, "output format: text, json, yaml or toml")

	cmd.RunE = app.action(func(cmd *cobra.Command, args []string) error {
		m, err := app.manager()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		p, err := m.Project(ctx, args[0])
		if err != nil {
			return err
		}
		if !p.IsDownloaded() {
			return issue.NewErrorContext().
				WithOperation("show project").
				WithResource(p.Name()).
				WithSuggestion("Run 'flowrun pull " + args[0] + "' first").
				WithIssue(issue.ProjectNotFoundId).
				Wrap(project.ErrNotDownloaded).
				BuildError()
		}

		info := projectInfo{Name: p.Name(), URL: p.URL(), Dir: p.Dir()}
		if info.Manifest, err = p.Manifest(); err != nil {
			return err
		}
		if info.Revision, err = p.RevisionInfo(ctx); err != nil {
			return err
		}
		if info.Revisions, err = p.Revisions(ctx); err != nil {
			return err
		}

		if output != formatText {
			return encodeStructured(app.deps.Stdout, output, info)
		}
		printProjectInfo(app, info)
		return nil
	})

	return cmd
}

func printProjectInfo(app *App, info projectInfo) {
	w := app.deps.Stdout
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), value)
		}
	}

	fmt.Fprintln(w, TitleStyle.Render(info.Name))
	if info.Manifest.Description != "" {
		fmt.Fprintln(w, SubtitleStyle.Render(info.Manifest.Description))
	}
	fmt.Fprintln(w)
	row("url", info.URL)
	row("dir", info.Dir)
	row("main script", info.Manifest.MainScript)
	row("version", info.Manifest.Version)
	row("author", info.Manifest.Author)
	row("home page", info.Manifest.HomePage)
	row("revision", info.Revision.String())
	row("branches", strings.Join(info.Revisions.Branches, ", "))
	row("tags", strings.Join(info.Revisions.Tags, ", "))
}

func newDropCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "drop <project>",
		Short: "Delete a project from the cache",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even when the clone has local changes")

	cmd.RunE = app.action(func(cmd *cobra.Command, args []string) error {
		m, err := app.manager()
		if err != nil {
			return err
		}
		if err := m.Drop(cmd.Context(), args[0], force); err != nil {
			return err
		}
		fmt.Fprintf(app.deps.Stdout, "%s dropped %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]))
		return nil
	})

	return cmd
}
