package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/coursepilot/pkg/types"
)

// Run outcomes.
const (
	StatusFinished    = "finished"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

// RunSummary describes one unattended run.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	CourseURL string        `json:"course_url,omitempty"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Progress  int           `json:"progress"`
	Threshold int           `json:"threshold"`
	Logs      LogCounts     `json:"logs"`
}

// LogCounts tallies log events by type.
type LogCounts struct {
	Info    int `json:"info"`
	Success int `json:"success"`
	Error   int `json:"error"`
}

// summaryRecorder is a relay that folds events into a RunSummary.
type summaryRecorder struct {
	mu      sync.Mutex
	summary *RunSummary
}

func (r *summaryRecorder) Emit(event *types.AutomationEvent) {
	if event == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case types.EventTypeLog:
		switch event.LogType {
		case types.LogSuccess:
			r.summary.Logs.Success++
		case types.LogError:
			r.summary.Logs.Error++
		default:
			r.summary.Logs.Info++
		}
	case types.EventTypeStatus:
		if event.Data != nil {
			r.summary.Progress = event.Data.Progress
			r.summary.Threshold = event.Data.Threshold
		}
	}
}

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// WriteAll writes run.json and summary.md under a directory named after
// the run.
func (w *ArtifactWriter) WriteAll(summary *RunSummary) (string, error) {
	dir := filepath.Join(w.outputDir, summary.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.json"), data, 0600); err != nil {
		return "", fmt.Errorf("failed to write run JSON: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "summary.md"), []byte(summaryMarkdown(summary)), 0600); err != nil {
		return "", fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return dir, nil
}

func summaryMarkdown(summary *RunSummary) string {
	var md strings.Builder

	md.WriteString("# Course Run Summary\n\n")
	if summary.CourseURL != "" {
		md.WriteString(fmt.Sprintf("**Course:** %s\n\n", summary.CourseURL))
	}
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString(fmt.Sprintf("✅ **Progress:** %d%% of %d%%\n\n", summary.Progress, summary.Threshold))
	}

	md.WriteString("## Log Events\n\n")
	md.WriteString(fmt.Sprintf("- **Info:** %d\n", summary.Logs.Info))
	md.WriteString(fmt.Sprintf("- **Success:** %d\n", summary.Logs.Success))
	md.WriteString(fmt.Sprintf("- **Error:** %d\n", summary.Logs.Error))

	return md.String()
}
