package worker

import (
	"os"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"fastfinder/internal/domain"
)

// Spec describes one worker invocation
type Spec struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	UsePTY bool
}

// CommandLine renders the spec as a single quoted command line
func (s Spec) CommandLine() string {
	return CommandLine(s.Path, s.Args)
}

// SplitCommand splits a configured command such as `python3 -u` into the
// executable and its leading arguments
func SplitCommand(command string) (string, []string, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		return "", nil, errors.Wrapf(err, "invalid worker command %q", command)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("worker command is empty")
	}
	return parts[0], parts[1:], nil
}

// NewSpec assembles the invocation for a search request: the configured
// command, the optional script, then the request flags
func NewSpec(command, script string, req domain.SearchRequest) (Spec, error) {
	path, prefix, err := SplitCommand(command)
	if err != nil {
		return Spec{}, err
	}

	args := append([]string{}, prefix...)
	if script != "" {
		args = append(args, script)
	}
	args = append(args, BuildArgs(req)...)

	return Spec{Path: path, Args: args}, nil
}

// BuildEnv returns base with the dotenv file and overrides applied on top.
// The worker always gets UTF-8 stdio.
func BuildEnv(base []string, envFile string, overrides map[string]string) ([]string, error) {
	vars := make(map[string]string, len(base))
	order := make([]string, 0, len(base))
	set := func(k, v string) {
		if _, ok := vars[k]; !ok {
			order = append(order, k)
		}
		vars[k] = v
	}

	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		set(k, v)
	}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read env file %s", envFile)
		}
		keys := make([]string, 0, len(fileVars))
		for k := range fileVars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set(k, fileVars[k])
		}
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, overrides[k])
	}

	set("PYTHONIOENCODING", "utf-8")

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}

// DefaultEnv is BuildEnv over the current process environment
func DefaultEnv(envFile string, overrides map[string]string) ([]string, error) {
	return BuildEnv(os.Environ(), envFile, overrides)
}
