package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fastfinder/internal/domain"
	"fastfinder/internal/pipeline"
	"fastfinder/internal/progress"
	"fastfinder/internal/results"
)

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "folder to search", Required: true},
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "text or pattern to find", Required: true},
		&cli.BoolFlag{Name: "regex", Usage: "treat the query as a regular expression"},
		&cli.BoolFlag{Name: "recursive", Usage: "descend into subfolders (default from search.recursive)"},
		&cli.BoolFlag{Name: "zip", Usage: "look inside archives"},
		&cli.BoolFlag{Name: "word", Usage: "search Word documents"},
		&cli.BoolFlag{Name: "excel", Usage: "search Excel workbooks"},
		&cli.BoolFlag{Name: "legacy", Usage: "search legacy Office formats"},
		&cli.StringFlag{Name: "legacy-doc", Usage: "legacy .doc reader: auto, com or external"},
		&cli.StringFlag{Name: "exts", Usage: "comma separated extensions, e.g. .txt,.md"},
		&cli.StringFlag{Name: "exclude-folders", Usage: "comma separated folder names to skip"},
		&cli.IntFlag{Name: "max-workers", Usage: "worker parallelism, 0 lets the worker decide"},
		&cli.BoolFlag{Name: "diag", Usage: "ask the worker for diagnostics"},
		&cli.StringFlag{Name: "filter", Usage: "only keep results containing every word"},
		&cli.StringFlag{Name: "sort", Usage: "sort by none, path, ext, entry, line or snippet", Value: "none"},
		&cli.BoolFlag{Name: "desc", Usage: "sort descending"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write results to this file (.csv or .tsv) instead of stdout"},
		&cli.StringFlag{Name: "format", Usage: "stdout format: csv or tsv", Value: "tsv"},
		&cli.DurationFlag{Name: "timeout", Usage: "cancel the search after this long"},
	}
}

// searchAction runs one search headless and prints or exports the results
func searchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()

	sortKey, ok := domain.ParseSortKey(cmd.String("sort"))
	if !ok {
		return errors.Errorf("unknown sort column %q", cmd.String("sort"))
	}
	format := results.FormatTSV
	switch strings.ToLower(cmd.String("format")) {
	case "csv":
		format = results.FormatCSV
	case "tsv":
	default:
		return errors.Errorf("unknown format %q", cmd.String("format"))
	}

	req := domain.SearchRequest{
		Root:  cmd.String("folder"),
		Query: cmd.String("query"),
		Options: domain.SearchOptions{
			Regex:          cmd.Bool("regex"),
			Recursive:      a.cfg.Search.Recursive,
			Zip:            a.cfg.Search.Zip || cmd.Bool("zip"),
			Word:           cmd.Bool("word"),
			Excel:          cmd.Bool("excel"),
			Legacy:         cmd.Bool("legacy"),
			LegacyDoc:      firstNonEmpty(cmd.String("legacy-doc"), a.cfg.Search.LegacyDoc),
			Extensions:     firstNonEmpty(cmd.String("exts"), a.cfg.Search.Extensions),
			ExcludeFolders: firstNonEmpty(cmd.String("exclude-folders"), a.cfg.Search.ExcludeFolders),
			MaxWorkers:     a.cfg.Search.MaxWorkers,
			Diag:           cmd.Bool("diag"),
		},
	}
	if cmd.IsSet("recursive") {
		req.Options.Recursive = cmd.Bool("recursive")
	}
	if cmd.IsSet("max-workers") {
		req.Options.MaxWorkers = int(cmd.Int("max-workers"))
	}

	if timeout := cmd.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	coord := pipeline.New(pipeline.OptionsFromConfig(a.cfg), a.bus, a.logger)
	defer coord.Close()
	coord.RequestFilter(cmd.String("filter"))
	coord.RequestSort(sortKey, cmd.Bool("desc"))

	runID, err := coord.Start(ctx, req)
	if err != nil {
		return err
	}

	// ctx ending cancels the worker; the drain still has to finish
	if err := coord.Wait(context.Background()); err != nil {
		return err
	}
	a.logger.Info("search complete", zap.String("run_id", runID), zap.Int("records", coord.Total()))

	errOut := cmd.Root().ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}

	if out := cmd.String("output"); out != "" {
		rows, err := coord.Export(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "%d rows written to %s\n", rows, out)
	} else if err := results.WriteDelimited(cmd.Root().Writer, coord.Projection(), format); err != nil {
		return err
	}

	printSummary(errOut, coord)
	return nil
}

func printSummary(w io.Writer, coord *pipeline.Coordinator) {
	c := coord.Counters()
	fmt.Fprintf(w, "%d / %d files, %d hits, %d shown, %s",
		c.ProcessedCount, c.QueuedTotal, c.HitCount, coord.Projection().Len(),
		progress.FormatElapsed(coord.Elapsed()))
	if coord.State() == domain.StateExited && c.Message != "" {
		fmt.Fprintf(w, " (%s)", c.Message)
	}
	fmt.Fprintln(w)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
