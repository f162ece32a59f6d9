package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/entrhq/coursepilot/pkg/executor/headless"
)

type runOptions struct {
	profilePath string
	courseURL   string
	artifacts   string
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run unattended until the progress target is reached",
		Long: `run launches the browser, starts the automation as soon as the course page
attaches and exits once the progress threshold is reached and the course was
exited. An interrupt stops the run cleanly; both end with status 0.`,
		Example: `  # Run with a profile
  coursepilot run --profile course.yaml

  # Run a course URL with persisted settings
  coursepilot run --course-url https://jkodirect.jten.mil/...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd.Context(), opts, ro)
		},
	}

	cmd.Flags().StringVar(&ro.profilePath, "profile", "", "run profile (YAML)")
	cmd.Flags().StringVar(&ro.courseURL, "course-url", "", "course URL, overrides the profile")
	cmd.Flags().StringVar(&ro.artifacts, "artifacts", "", "write run.json and summary.md under this directory")
	return cmd
}

func runHeadless(ctx context.Context, opts *globalOptions, ro *runOptions) error {
	profile := headless.DefaultProfile()
	if ro.profilePath != "" {
		loaded, err := headless.LoadProfile(ro.profilePath)
		if err != nil {
			return err
		}
		profile = loaded
	}
	if ro.courseURL != "" {
		profile.CourseURL = ro.courseURL
	}
	if ro.artifacts != "" {
		profile.Artifacts.Enabled = true
		profile.Artifacts.OutputDir = ro.artifacts
	}
	if profile.NATS.URL == "" && opts.natsURL != "" {
		profile.NATS.URL = opts.natsURL
		profile.NATS.Prefix = opts.natsPrefix
		profile.NATS.ServeControl = true
	}

	manager, err := opts.loadSettings()
	if err != nil {
		return err
	}

	logger := newLogger("run")
	defer logger.Close()

	runner, err := headless.NewRunner(profile, manager, headless.WithFileLogger(logger))
	if err != nil {
		return err
	}

	// Finished and interrupted runs both return nil
	_, err = runner.Run(ctx)
	return err
}
