package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/coursepilot/pkg/types"
)

// View renders the entire control surface.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{
		m.buildHeader(),
		m.buildStatus(),
		m.buildProgress(),
		m.buildInputs(),
		logBoxStyle.Width(m.width - 2).Render(m.logView.View()),
		m.buildTips(),
	}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *model) buildHeader() string {
	return headerStyle.Render("  ◆ coursepilot")
}

// statusText is the status line label: Running, Stopped or Not attached.
func (m *model) statusText() string {
	switch {
	case !m.polled:
		return "Connecting..."
	case !m.attached:
		return "Not attached"
	case m.status.Running:
		return "Running"
	default:
		return "Stopped"
	}
}

func (m *model) buildStatus() string {
	label := m.statusText()
	style := stoppedStyle
	if m.attached && m.status.Running {
		style = runningStyle
	}

	parts := []string{
		labelStyle.Render("Status: ") + style.Render(label),
		labelStyle.Render("Progress: ") + valueStyle.Render(fmt.Sprintf("%d%%", m.status.Progress)),
		labelStyle.Render("Threshold: ") + valueStyle.Render(fmt.Sprintf("%d%%", m.status.Threshold)),
		labelStyle.Render("Retries: ") + valueStyle.Render(fmt.Sprintf("%d", m.status.Retries)),
	}
	if m.status.Phase != "" {
		parts = append(parts, labelStyle.Render("Phase: ")+valueStyle.Render(string(m.status.Phase)))
	}
	return statusBarStyle.Render(strings.Join(parts, "   "))
}

// buildProgress renders progress against the threshold; a full bar means the
// exit is due.
func (m *model) buildProgress() string {
	ratio := 0.0
	if m.status.Threshold > 0 {
		ratio = float64(m.status.Progress) / float64(m.status.Threshold)
	}
	ratio = min(1, max(0, ratio))
	return "  " + m.progress.ViewAs(ratio)
}

func (m *model) buildInputs() string {
	fields := []string{"Threshold %", "Max retries"}
	boxes := make([]string, 0, len(m.inputs))
	for i, input := range m.inputs {
		style := inputBoxStyle
		if i == m.focus {
			style = focusedInputBoxStyle
		}
		boxes = append(boxes, style.Render(labelStyle.Render(fields[i]+" ")+input.View()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *model) buildTips() string {
	return tipsStyle.Render("  s start • x stop • tab switch field • enter apply • ↑/↓ scroll • y copy log • q quit")
}

func renderLogEntry(entry logEntry) string {
	style := infoStyle
	switch entry.logType {
	case types.LogSuccess:
		style = successStyle
	case types.LogError:
		style = errorStyle
	}
	return timestampStyle.Render(entry.time.Format("15:04:05")) + " " +
		style.Render(entry.logType.Icon()+" "+entry.message)
}
