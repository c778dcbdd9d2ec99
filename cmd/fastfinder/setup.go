package main

import (
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fastfinder/internal/config"
	"fastfinder/internal/eventbus"
	"fastfinder/internal/logging"
)

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	bus    eventbus.EventBus
	logger *zap.Logger
}

// setup loads the configuration and builds the logger. defaultLogFile is
// used when neither the flag nor the config names one.
func setup(cmd *cli.Command, defaultLogFile string) (*app, error) {
	svc := config.NewConfigService(cmd.String("config"), nil)
	cfg, err := svc.Load()
	if err != nil {
		return nil, err
	}

	env := cfg.Log.Env
	if v := cmd.String("log-env"); v != "" {
		env = v
	}
	file := cfg.Log.File
	if v := cmd.String("log-file"); v != "" {
		file = v
	}
	if file == "" {
		file = defaultLogFile
	}

	logger, err := logging.NewLogger(env, file)
	if err != nil {
		return nil, err
	}
	logger.Info("configuration loaded", zap.String("path", svc.Path()), zap.String("log_env", env))

	return &app{
		cfg:    cfg,
		bus:    eventbus.New(logger),
		logger: logger,
	}, nil
}

func (a *app) close() {
	a.bus.Close()
	_ = a.logger.Sync()
}
