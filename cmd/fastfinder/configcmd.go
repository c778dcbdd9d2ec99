package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"fastfinder/internal/config"
)

func configInitAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return errors.Errorf("%s already exists (use --force to overwrite)", path)
	}

	svc := config.NewConfigService(path, nil)
	if err := svc.SaveToPath(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, "wrote", path)
	return nil
}

func configShowAction(ctx context.Context, cmd *cli.Command) error {
	svc := config.NewConfigService(cmd.String("config"), nil)
	cfg, err := svc.Load()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "# %s\n%s", svc.Path(), data)
	return nil
}
