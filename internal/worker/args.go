package worker

import (
	"strconv"
	"strings"
	"unicode"

	"fastfinder/internal/domain"
)

// BuildArgs encodes a search request as worker flags
func BuildArgs(req domain.SearchRequest) []string {
	opts := req.Options
	args := []string{"--folder", req.Root, "--query", req.Query}

	if opts.Regex {
		args = append(args, "--regex")
	}
	if opts.Zip {
		args = append(args, "--zip")
	}
	if opts.Recursive {
		args = append(args, "--recursive")
	}
	if exts := strings.TrimSpace(opts.Extensions); exts != "" {
		args = append(args, "--exts", exts)
	}
	if exclude := strings.TrimSpace(opts.ExcludeFolders); exclude != "" {
		args = append(args, "--exclude-folders", exclude)
	}
	if opts.MaxWorkers > 0 {
		args = append(args, "--max-workers", strconv.Itoa(opts.MaxWorkers))
	}
	if opts.Word {
		args = append(args, "--word")
	}
	if opts.Excel {
		args = append(args, "--excel")
	}
	if opts.Legacy {
		args = append(args, "--legacy")
		switch {
		case opts.LegacyDoc != "":
			args = append(args, "--legacy-doc", opts.LegacyDoc)
		case opts.Word:
			args = append(args, "--legacy-doc", "com")
		}
	}
	if opts.Diag {
		args = append(args, "--diag")
	}
	return args
}

// QuoteArgument quotes one argument for a command line. Empty strings
// become "", and arguments containing whitespace or quotes are wrapped in
// quotes with embedded quotes backslash-escaped. Backslashes that precede
// a quote are doubled so the argument parses back unchanged.
func QuoteArgument(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsFunc(arg, func(r rune) bool { return unicode.IsSpace(r) || r == '"' }) {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	backslashes := 0
	for _, r := range arg {
		switch r {
		case '\\':
			backslashes++
		case '"':
			b.WriteString(strings.Repeat(`\`, backslashes*2+1))
			b.WriteRune(r)
			backslashes = 0
		default:
			if backslashes > 0 {
				b.WriteString(strings.Repeat(`\`, backslashes))
				backslashes = 0
			}
			b.WriteRune(r)
		}
	}
	if backslashes > 0 {
		b.WriteString(strings.Repeat(`\`, backslashes*2))
	}
	b.WriteByte('"')
	return b.String()
}

// CommandLine renders a full command line for logs and diagnostics
func CommandLine(path string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArgument(path))
	for _, a := range args {
		parts = append(parts, QuoteArgument(a))
	}
	return strings.Join(parts, " ")
}
