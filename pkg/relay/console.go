package relay

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/entrhq/coursepilot/pkg/types"
)

// Console prints events to a terminal with the log type's icon and color.
// Status events are shown only when verbose.
type Console struct {
	mu      sync.Mutex
	writer  io.Writer
	verbose bool
	color   bool

	// ANSI color codes
	colorReset     string
	colorSalmon    string
	colorGray      string
	colorBoldGreen string
	colorBoldRed   string
}

// NewConsole creates a console relay writing to stdout.
func NewConsole(verbose bool) *Console {
	return NewConsoleWriter(os.Stdout, verbose, true)
}

// NewConsoleWriter creates a console relay writing to w. Colors are
// omitted when color is false.
func NewConsoleWriter(w io.Writer, verbose, color bool) *Console {
	c := &Console{writer: w, verbose: verbose, color: color}
	if color {
		c.colorReset = "\033[0m"
		c.colorSalmon = "\033[38;5;217m" // Salmon pink #FFB3BA
		c.colorGray = "\033[90m"
		c.colorBoldGreen = "\033[1;32m"
		c.colorBoldRed = "\033[1;31m"
	}
	return c
}

// Emit prints event.
func (c *Console) Emit(event *types.AutomationEvent) {
	if event == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := event.Time.Format("15:04:05")

	switch event.Type {
	case types.EventTypeLog:
		fmt.Fprintf(c.writer, "%s%s %s %s%s\n",
			c.colorFor(event.LogType), stamp, event.LogType.Icon(), event.Message, c.colorReset)

	case types.EventTypeStatus:
		if !c.verbose || event.Data == nil {
			return
		}
		s := event.Data
		fmt.Fprintf(c.writer, "%s%s → %s progress=%d%% threshold=%d%% started=%t retries=%d%s\n",
			c.colorGray, stamp, s.Phase, s.Progress, s.Threshold, s.HasStarted, s.Retries, c.colorReset)
	}
}

func (c *Console) colorFor(logType types.LogType) string {
	switch logType {
	case types.LogSuccess:
		return c.colorBoldGreen
	case types.LogError:
		return c.colorBoldRed
	default:
		return c.colorSalmon
	}
}
