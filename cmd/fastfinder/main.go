package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fastfinder:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "fastfinder",
		Usage: "search files with an external worker and browse the results live",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: ./fastfinder.toml, then the user config dir)",
			},
			&cli.StringFlag{
				Name:  "log-env",
				Usage: "logger flavour: prod, dev or test (overrides log.env)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file (overrides log.file)",
			},
		},
		Action: tuiAction,
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "run one search without the UI and write the results",
				Flags:  searchFlags(),
				Action: searchAction,
			},
			{
				Name:  "config",
				Usage: "configuration commands",
				Commands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write the default configuration",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "overwrite an existing file",
							},
						},
						Action: configInitAction,
					},
					{
						Name:   "show",
						Usage:  "print the effective configuration",
						Action: configShowAction,
					},
				},
			},
		},
	}
}
