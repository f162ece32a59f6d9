package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/coursepilot/pkg/course"
	"github.com/entrhq/coursepilot/pkg/dom"
	"github.com/entrhq/coursepilot/pkg/dom/snapshot"
)

func newInspectCmd() *cobra.Command {
	var (
		frame  string
		markup bool
		color  string
	)

	cmd := &cobra.Command{
		Use:   "inspect <manifest.yaml>",
		Short: "Show what the automation would read from a saved course page",
		Long: `inspect loads a snapshot manifest (a frame tree of saved HTML documents) and
prints the progress, the selected lesson's completion and the header
controls as the automation sees them. Nothing is clicked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(colorModes, color) {
				return fmt.Errorf("--color must be one of %s", strings.Join(colorModes, ", "))
			}
			out := cmd.OutOrStdout()
			return inspect(out, args[0], frame, markup, wantColor(color, out))
		},
	}

	cmd.Flags().StringVar(&frame, "frame", "", "frame to search from (default the top document)")
	cmd.Flags().BoolVar(&markup, "html", false, "print the markup of each control found")
	cmd.Flags().StringVar(&color, "color", "auto", "highlight markup: auto, always or never")
	return cmd
}

func inspect(w io.Writer, path, frame string, markup, color bool) error {
	page, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	var origin dom.Context = page.Main()
	if frame != "" {
		f := page.Frame(frame)
		if f == nil {
			return fmt.Errorf("frame %q is not in the snapshot", frame)
		}
		origin = f
	}

	frames := page.Frames()
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		name := f.Name()
		if name == "" {
			name = "(top)"
		}
		names = append(names, name)
	}

	d := course.Diagnose(origin)

	fmt.Fprintf(w, "Snapshot:  %s\n", orNone(page.URL()))
	fmt.Fprintf(w, "Frames:    %s\n", strings.Join(names, ", "))
	if d.ProgressFound {
		fmt.Fprintf(w, "Progress:  %d%%\n", d.Progress)
	} else {
		fmt.Fprintln(w, "Progress:  not found")
	}
	fmt.Fprintf(w, "Lesson:    %s\n", d.Lesson)
	fmt.Fprintf(w, "API:       %s\n", found(d.API))
	fmt.Fprintf(w, "Header:    %s\n", found(d.HeaderFound))
	fmt.Fprintf(w, "Lessons:   %s\n", found(d.LessonsFound))

	if len(d.Controls) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Controls:")
	for _, c := range d.Controls {
		state := "missing"
		switch {
		case c.Visible:
			state = "visible"
		case c.Found:
			state = "hidden"
		}
		fmt.Fprintf(w, "  %-7s %s\n", c.Name, state)
		if markup && c.Markup != "" {
			html := c.Markup
			if color {
				html = highlightMarkup(html)
			}
			fmt.Fprintf(w, "          %s\n", html)
		}
	}
	return nil
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "not found"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
