package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/control"
	"github.com/entrhq/coursepilot/pkg/executor/tui"
	"github.com/entrhq/coursepilot/pkg/pilot"
	"github.com/entrhq/coursepilot/pkg/relay"
	"github.com/entrhq/coursepilot/pkg/types"
)

func newTUICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the course and the interactive control surface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

// runTUI launches the browser, keeps a controller attached to the course
// page and hands the terminal to the control surface until the user quits.
func runTUI(ctx context.Context, opts *globalOptions) error {
	manager, err := opts.loadSettings()
	if err != nil {
		return err
	}

	logger := newLogger("tui")
	defer logger.Close()

	source, shutdown, err := pilot.OpenBrowser(config.BrowserOf(manager).Settings(), logger)
	if err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	defer func() {
		if err := shutdown(); err != nil {
			logger.Warnf("Browser shutdown: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	broadcaster := relay.NewBroadcaster()
	defer broadcaster.Close()

	relays := []relay.Relay{broadcaster}
	handler := control.NewHandler(manager, logger)

	if opts.natsURL != "" {
		nr, err := relay.DialNATS(relay.NATSConfig{
			URL:    opts.natsURL,
			Prefix: opts.natsPrefix,
			Name:   "coursepilot-tui",
		}, logger)
		if err != nil {
			return err
		}
		defer nr.Close()
		if err := nr.ServeControl(ctx, handler); err != nil {
			return err
		}
		relays = append(relays, nr)
	}

	p := pilot.New(source,
		pilot.WithManager(manager),
		pilot.WithRelay(relay.NewMulti(relays...)),
		pilot.WithHandler(handler),
		pilot.WithLogger(logger),
	)
	if path, err := p.WatchStore(ctx); err != nil {
		logger.Warnf("Settings will not reload: %v", err)
	} else {
		logger.Infof("Watching %s", path)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("Pilot stopped: %v", err)
			broadcaster.Emit(types.NewLogEvent(fmt.Sprintf("Pilot stopped: %v", err), types.LogError))
		}
	}()

	automation := config.AutomationOf(manager).Settings()
	err = tui.NewExecutor(handler, broadcaster, tui.Settings{
		ProgressThreshold: automation.ProgressThreshold,
		MaxRetries:        automation.MaxRetries,
	}).Run(ctx)

	cancel()
	<-done
	return err
}
