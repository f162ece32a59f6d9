package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/relay"
	"github.com/entrhq/coursepilot/pkg/types"
)

const requestTimeout = 5 * time.Second

// requester sends control messages to a running coursepilot.
type requester interface {
	Request(ctx context.Context, msg *types.ControlMessage) (*types.ControlResponse, error)
}

func newCtlCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctl",
		Short: "Control a running coursepilot over NATS",
		Long: `ctl sends control requests to a coursepilot started with --nats-url (or a run
profile that serves control) and can follow its event stream.`,
	}

	simple := func(use, short string, build func() *types.ControlMessage) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRelay(opts, func(nr *relay.NATSRelay) error {
					return sendControl(cmd.Context(), nr, build(), cmd.OutOrStdout())
				})
			},
		}
	}

	valued := func(use, short string, lo, hi int, build func(int) *types.ControlMessage) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <value>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := parseBounded(args[0], lo, hi)
				if err != nil {
					return err
				}
				return withRelay(opts, func(nr *relay.NATSRelay) error {
					return sendControl(cmd.Context(), nr, build(value), cmd.OutOrStdout())
				})
			},
		}
	}

	cmd.AddCommand(
		simple("status", "Print the automation status", types.NewGetStatusMessage),
		simple("start", "Start the automation", types.NewStartMessage),
		simple("stop", "Stop the automation", types.NewStopMessage),
		valued("threshold", "Set the progress threshold (1-100)", 1, 100, types.NewSetThresholdMessage),
		valued("retries", "Set the retry limit (1-50)", 1, 50, types.NewSetMaxRetriesMessage),
		&cobra.Command{
			Use:   "watch",
			Short: "Print events until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRelay(opts, func(nr *relay.NATSRelay) error {
					console := relay.NewConsoleWriter(cmd.OutOrStdout(), true, true)
					if err := nr.Subscribe(cmd.Context(), console.Emit); err != nil {
						return err
					}
					<-cmd.Context().Done()
					return nil
				})
			},
		},
	)
	return cmd
}

func withRelay(opts *globalOptions, fn func(nr *relay.NATSRelay) error) error {
	if opts.natsURL == "" {
		return errors.New("ctl needs --nats-url")
	}
	nr, err := relay.DialNATS(relay.NATSConfig{
		URL:    opts.natsURL,
		Prefix: opts.natsPrefix,
		Name:   "coursepilot-ctl",
	}, logging.Discard())
	if err != nil {
		return err
	}
	defer nr.Close()
	return fn(nr)
}

func sendControl(ctx context.Context, r requester, msg *types.ControlMessage, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := r.Request(ctx, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s failed: %s", msg.Action, resp.Error)
	}

	if resp.Status != nil {
		fmt.Fprintln(w, formatStatus(*resp.Status))
		return nil
	}
	fmt.Fprintf(w, "%s: ok\n", msg.Action)
	return nil
}

func formatStatus(s types.Status) string {
	state := "Stopped"
	if s.Running {
		state = "Running"
	}
	line := fmt.Sprintf("%s progress=%d%% threshold=%d%% retries=%d started=%t", state, s.Progress, s.Threshold, s.Retries, s.HasStarted)
	if s.Phase != "" {
		line += " phase=" + string(s.Phase)
	}
	return line
}

func parseBounded(arg string, lo, hi int) (int, error) {
	value, err := strconv.Atoi(arg)
	if err != nil || value < lo || value > hi {
		return 0, fmt.Errorf("value must be an integer between %d and %d", lo, hi)
	}
	return value, nil
}
