//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Hit is one line the fake worker reports
type Hit struct {
	File    string
	Entry   string
	Line    int
	Snippet string
}

// WorkerOption tunes the fake worker script
type WorkerOption func(*workerScript)

type workerScript struct {
	hits    []Hit
	stderr  []string
	pause   string
	elapsed string
}

// WithHits makes the worker report these records, paths relative to the
// search folder
func WithHits(hits ...Hit) WorkerOption {
	return func(w *workerScript) { w.hits = append(w.hits, hits...) }
}

// WithStderr makes the worker print a diagnostic line
func WithStderr(line string) WorkerOption {
	return func(w *workerScript) { w.stderr = append(w.stderr, line) }
}

// WithPause keeps the worker alive for a while before reporting done
func WithPause(seconds string) WorkerOption {
	return func(w *workerScript) { w.pause = seconds }
}

// CreateTestWorkspace creates the search folder, a fake worker and a config
// file pointing at it
func (tf *TUITestFramework) CreateTestWorkspace(options ...WorkerOption) (string, error) {
	w := &workerScript{elapsed: "0.05"}
	for _, opt := range options {
		opt(w)
	}

	dir := tf.t.TempDir()
	tf.workspace = dir

	script := filepath.Join(dir, ".worker.sh")
	if err := os.WriteFile(script, []byte(w.render()), 0755); err != nil {
		return "", err
	}

	tf.config = filepath.Join(dir, ".fastfinder.toml")
	cfg := fmt.Sprintf(`[worker]
command = "sh"
script = %q
grace_period = "500ms"

[pipeline]
drain_interval = "20ms"
filter_debounce = "50ms"

[log]
env = "dev"
file = %q
`, script, filepath.Join(dir, ".fastfinder.log"))
	if err := os.WriteFile(tf.config, []byte(cfg), 0644); err != nil {
		return "", err
	}
	return dir, nil
}

// render writes a POSIX sh worker. The search folder arrives after --folder.
func (w *workerScript) render() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("root=.\n")
	b.WriteString("while [ $# -gt 0 ]; do\n  if [ \"$1\" = \"--folder\" ]; then root=\"$2\"; fi\n  shift\ndone\n")
	fmt.Fprintf(&b, "printf '#queued\\t%d\\n'\n", len(w.hits))
	for _, line := range w.stderr {
		fmt.Fprintf(&b, "printf '%%s\\n' %s >&2\n", shellQuote(line))
	}
	for _, h := range w.hits {
		fmt.Fprintf(&b, "printf '%%s/%%s\\t%%s\\t%%s\\t%%s\\n' \"$root\" %s %s %d %s\n",
			shellQuote(h.File), shellQuote(h.Entry), h.Line, shellQuote(h.Snippet))
	}
	if w.pause != "" {
		fmt.Fprintf(&b, "sleep %s\n", w.pause)
	}
	fmt.Fprintf(&b, "printf '#done\\t%d\\t%d\\t%s\\n'\n", len(w.hits), len(w.hits), w.elapsed)
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
