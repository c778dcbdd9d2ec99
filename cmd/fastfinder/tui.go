package main

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fastfinder/internal/config"
	"fastfinder/internal/eventbus"
	"fastfinder/internal/pipeline"
	"fastfinder/internal/prefs"
	"fastfinder/internal/ui"
)

// tuiAction runs the interactive UI. Logs go to a file because the
// terminal belongs to the renderer.
func tuiAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd, filepath.Join(config.Dir(), "fastfinder.log"))
	if err != nil {
		return err
	}
	defer a.close()

	prefsPath := prefs.DefaultPath()
	p, err := prefs.Load(prefsPath)
	if err != nil {
		a.logger.Warn("ignoring unreadable preferences", zap.String("path", prefsPath), zap.Error(err))
	}

	opts := pipeline.OptionsFromConfig(a.cfg)
	if p.WorkerPath != "" && a.cfg.Worker.Script == config.DefaultScript {
		opts.Script = p.WorkerPath
	}
	coord := pipeline.New(opts, a.bus, a.logger)
	defer coord.Close()

	model := ui.NewModel(ctx, coord, a.cfg, p, prefsPath, a.logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(program)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			a.logger.Debug("event channel full, dropping event", zap.String("type", string(e.Type())))
		}
	}
	for _, t := range []eventbus.EventType{
		eventbus.EventRunStarted,
		eventbus.EventRunExited,
		eventbus.EventRunFailed,
		eventbus.EventExportCompleted,
		eventbus.EventStatusMessage,
	} {
		unsubscribe := a.bus.Subscribe(t, forward)
		defer unsubscribe()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case e := <-eventChan:
				program.Send(ui.EventMsg{Event: e})
			case <-done:
				return
			}
		}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run ui")
	}
	return nil
}
