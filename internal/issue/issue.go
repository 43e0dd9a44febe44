// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	StdinNotAvailableId Id = iota + 1
	RevisionNotAllowedId
	RunNameUnavailableId
	ParamsFileInvalidId
	ParamsFileParseErrorId
	ProjectNotFoundId
	ProjectCorruptedId
	RevisionNotFoundId
	ResumeSessionNotFoundId
	ConfigLoadFailedId
	ScriptExecutionFailedId
)

type (
	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the Markdown message with the given glamour style ("dark", "light", "auto").
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	stdinNotAvailableIssue = &Issue{
		id: StdinNotAvailableId,
		mdMsg: `
# Nothing to read from standard input!

You asked flowrun to run the pipeline script from standard input (` + "`-`" + `),
but no input was piped in.

## Things you can try:
~~~
$ cat main.sh | flowrun run -
$ flowrun run - < main.sh
~~~`,
	}

	revisionNotAllowedIssue = &Issue{
		id: RevisionNotAllowedId,
		mdMsg: `
# Revision cannot be used here!

The ` + "`--revision`" + ` option selects a branch, tag or commit of a **remote project**.
Scripts read from standard input, local script files and local project
directories are not under flowrun's revision control.

## Things you can try:
- Drop the ` + "`-r/--revision`" + ` option
- Run the remote project instead:
~~~
$ flowrun run owner/repo -r v1.2.0
~~~`,
	}

	runNameUnavailableIssue = &Issue{
		id: RunNameUnavailableId,
		mdMsg: `
# Run name is not available!

Run names must be unique in the run history and ` + "`last`" + ` is reserved
for referring to the most recent run. Names cannot contain tabs, line breaks
or other control characters.

## Things you can try:
- List the names already in use:
~~~
$ flowrun log
~~~
- Pick another name with ` + "`--name`" + `, or omit it to get a generated one`,
	}

	paramsFileInvalidIssue = &Issue{
		id: ParamsFileInvalidId,
		mdMsg: `
# Params file cannot be used!

The file given with ` + "`--params-file`" + ` must exist and have one of the
extensions ` + "`.json`, `.yml` or `.yaml`" + ` (case does not matter).`,
	}

	paramsFileParseErrorIssue = &Issue{
		id: ParamsFileParseErrorId,
		mdMsg: `
# Failed to parse params file!

A JSON params file must contain a single object and a YAML params file a
single mapping, for example:

~~~yaml
input: data/*.csv
threads: 4
dry: false
~~~`,
	}

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# Project not found!

flowrun could not find the project locally or in the remote repository.

## Things you can try:
- Use the full ` + "`owner/repo`" + ` name or a repository URL
- List the projects already downloaded:
~~~
$ flowrun list
~~~
- For private repositories set ` + "`GITHUB_TOKEN`, `GITLAB_TOKEN` or `GIT_TOKEN`" + `,
  or add an SSH key to ` + "`~/.ssh/`",
	}

	projectCorruptedIssue = &Issue{
		id: ProjectCorruptedId,
		mdMsg: `
# Project repository looks corrupted!

An unexpected error happened while updating or checking out the cached
copy of the project.

## Things you can try:
- Remove the cached copy and download it again:
~~~
$ flowrun drop --force owner/repo
$ flowrun pull owner/repo
~~~`,
	}

	revisionNotFoundIssue = &Issue{
		id: RevisionNotFoundId,
		mdMsg: `
# Revision not found!

The requested branch, tag or commit does not exist in the project.

## Things you can try:
- List the available revisions:
~~~
$ flowrun info owner/repo
~~~
- Update the cached copy with ` + "`--latest`" + ` if the revision is new`,
	}

	resumeSessionNotFoundIssue = &Issue{
		id: ResumeSessionNotFoundId,
		mdMsg: `
# Nothing to resume!

` + "`--resume`" + ` takes no value (the last run) or a session id or run name
recorded in the run history of the launch directory.

~~~
$ flowrun log
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Show where flowrun looks for it:
~~~
$ flowrun config path
~~~
- Recreate the default configuration:
~~~
$ flowrun config init
~~~`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Pipeline script failed!

The script could not be parsed or the interpreter stopped with an error.
flowrun runs scripts with a POSIX shell interpreter, so bash-only syntax
may not be supported.`,
	}

	issues = map[Id]*Issue{
		stdinNotAvailableIssue.Id():     stdinNotAvailableIssue,
		revisionNotAllowedIssue.Id():    revisionNotAllowedIssue,
		runNameUnavailableIssue.Id():    runNameUnavailableIssue,
		paramsFileInvalidIssue.Id():     paramsFileInvalidIssue,
		paramsFileParseErrorIssue.Id():  paramsFileParseErrorIssue,
		projectNotFoundIssue.Id():       projectNotFoundIssue,
		projectCorruptedIssue.Id():      projectCorruptedIssue,
		revisionNotFoundIssue.Id():      revisionNotFoundIssue,
		resumeSessionNotFoundIssue.Id(): resumeSessionNotFoundIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		scriptExecutionFailedIssue.Id(): scriptExecutionFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
