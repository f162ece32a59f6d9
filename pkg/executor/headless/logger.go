package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel is the runner console verbosity.
type LogLevel int

const (
	// LogLevelQuiet prints warnings, errors and the summary
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal adds setup steps
	LogLevelNormal
	// LogLevelVerbose adds event counts to the summary
	LogLevelVerbose
	// LogLevelDebug adds internal details
	LogLevelDebug
)

const ruleWidth = 70

// consoleStyles are the runner's lipgloss styles. Without color every style
// renders text unchanged.
type consoleStyles struct {
	rule    lipgloss.Style
	step    lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	debug   lipgloss.Style
}

func newConsoleStyles(w io.Writer, color bool) consoleStyles {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle()
	if !color {
		return consoleStyles{plain, plain, plain, plain, plain, plain, plain}
	}
	return consoleStyles{
		rule:    plain.Bold(true).Foreground(lipgloss.Color("#FFFFFF")),
		step:    plain.Foreground(lipgloss.Color("6")),
		info:    plain.Foreground(lipgloss.Color("#FFB3BA")),
		success: plain.Bold(true).Foreground(lipgloss.Color("#A8E6CF")),
		warning: plain.Foreground(lipgloss.Color("3")),
		failure: plain.Bold(true).Foreground(lipgloss.Color("1")),
		debug:   plain.Foreground(lipgloss.Color("8")),
	}
}

// Logger prints the runner's own setup steps and the final summary. Course
// events go through the console relay instead.
type Logger struct {
	level  LogLevel
	writer io.Writer
	styles consoleStyles
	steps  int
}

// NewLogger creates a colored logger on stdout.
func NewLogger(level LogLevel) *Logger {
	return NewWriterLogger(os.Stdout, level, true)
}

// NewWriterLogger creates a logger writing to w. Color still depends on w
// being a terminal.
func NewWriterLogger(w io.Writer, level LogLevel, color bool) *Logger {
	return &Logger{level: level, writer: w, styles: newConsoleStyles(w, color)}
}

func (l *Logger) line(style lipgloss.Style, text string) {
	fmt.Fprintln(l.writer, style.Render(text))
}

func (l *Logger) rule() {
	l.line(l.styles.rule, strings.Repeat("=", ruleWidth))
}

func (l *Logger) banner(title string) {
	l.rule()
	l.line(l.styles.rule, "  "+title)
	l.rule()
}

// Header prints a banner.
func (l *Logger) Header(message string) {
	if l.level < LogLevelNormal {
		return
	}
	fmt.Fprintln(l.writer)
	l.banner(message)
}

// Step prints the next numbered step.
func (l *Logger) Step(message string) {
	if l.level < LogLevelNormal {
		return
	}
	l.steps++
	fmt.Fprintln(l.writer)
	l.line(l.styles.step, fmt.Sprintf("[%d] %s", l.steps, message))
}

func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.success, "✓ "+fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.info, fmt.Sprintf(format, args...))
	}
}

// Warningf prints at every level.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.line(l.styles.warning, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints at every level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.line(l.styles.failure, "✗ Error: "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.line(l.styles.debug, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

// Summary prints the run summary at every level.
func (l *Logger) Summary(summary *RunSummary) {
	fmt.Fprintln(l.writer)
	l.banner("RUN SUMMARY")

	status := string(summary.Status)
	statusStyle := l.styles.info
	switch summary.Status {
	case StatusFinished:
		status, statusStyle = "✓ FINISHED", l.styles.success
	case StatusInterrupted:
		status, statusStyle = "⚠ INTERRUPTED", l.styles.warning
	case StatusFailed:
		status, statusStyle = "✗ FAILED", l.styles.failure
	}
	fmt.Fprintf(l.writer, "  Status: %s\n", statusStyle.Render(status))

	if summary.CourseURL != "" {
		fmt.Fprintf(l.writer, "  Course: %s\n", summary.CourseURL)
	}
	fmt.Fprintf(l.writer, "  Duration: %s\n", summary.Duration.Round(time.Second))
	fmt.Fprintf(l.writer, "  Progress: %d%% (target %d%%)\n", summary.Progress, summary.Threshold)
	if l.level >= LogLevelVerbose {
		fmt.Fprintf(l.writer, "  Log events: %d info, %d success, %d error\n",
			summary.Logs.Info, summary.Logs.Success, summary.Logs.Error)
	}

	if summary.Error != "" {
		fmt.Fprintln(l.writer)
		l.line(l.styles.failure, "  Error Details:")
		l.line(l.styles.failure, "    "+summary.Error)
	}

	l.rule()
	fmt.Fprintln(l.writer)
}

// parseLogLevel maps a profile verbosity name; unknown names are normal.
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "quiet":
		return LogLevelQuiet
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}
