// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/flowrun/flowrun/internal/launch"
)

// Environment variables exported to every run.
const (
	EnvRunName    = "FLOWRUN_RUN_NAME"
	EnvSessionID  = "FLOWRUN_SESSION_ID"
	EnvScript     = "FLOWRUN_SCRIPT"
	EnvProjectDir = "FLOWRUN_PROJECT_DIR"
	EnvRevision   = "FLOWRUN_REVISION"
	EnvCommit     = "FLOWRUN_COMMIT"
	EnvParamsFile = "FLOWRUN_PARAMS_FILE"

	// ParamEnvPrefix prefixes the per-parameter variables.
	ParamEnvPrefix = "PARAM_"
)

// buildRunEnv builds the script environment. Host variables come first and
// are overridden by the run variables.
func buildRunEnv(l Launch, inherit bool, paramsFile string) map[string]string {
	env := make(map[string]string)
	if inherit {
		for _, entry := range FilterFlowrunEnvVars(os.Environ()) {
			name, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			env[name] = value
		}
	}

	if l.Params != nil {
		for key, value := range l.Params.All() {
			if value.Kind() == launch.KindStructured {
				continue
			}
			env[ParamEnvName(key)] = value.String()
		}
	}

	env[EnvRunName] = l.RunName
	env[EnvSessionID] = l.SessionID.String()
	env[EnvScript] = l.Ref.ScriptPath()
	env[EnvParamsFile] = paramsFile

	switch ref := l.Ref.(type) {
	case *launch.RemoteProject:
		env[EnvProjectDir] = ref.ProjectDir
		env[EnvRevision] = ref.RevisionInfo.Name
		env[EnvCommit] = ref.RevisionInfo.Commit
	case *launch.LocalScript:
		env[EnvProjectDir] = ref.ProjectDir
		env[EnvRevision] = ref.Revision.Name
		env[EnvCommit] = ref.Revision.Commit
	}

	return env
}

// ParamEnvName maps a parameter key to its environment variable: the key is
// upper-cased and every byte outside [A-Z0-9_] becomes '_'.
func ParamEnvName(key string) string {
	var b strings.Builder
	b.Grow(len(ParamEnvPrefix) + len(key))
	b.WriteString(ParamEnvPrefix)
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FilterFlowrunEnvVars drops FLOWRUN_* and PARAM_* variables inherited from
// the host so that a nested run never sees its parent's values.
func FilterFlowrunEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if !ok {
			// Malformed entry, keep it
			result = append(result, e)
			continue
		}
		if strings.HasPrefix(name, "FLOWRUN_") || strings.HasPrefix(name, ParamEnvPrefix) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// envToSlice converts the map to KEY=VALUE pairs sorted by key.
func envToSlice(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
