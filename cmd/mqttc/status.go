package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brineflow/mqttengine/engine"
)

// Color palette: one primary accent plus semantic state colors.
var (
	titleColor   = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#6B7280")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(titleColor).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(18)
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(1, 2)
	helpStyle  = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
)

// tickMsg drives the periodic re-render; the model otherwise only reacts to
// key presses and incoming messages.
type tickMsg time.Time

type statusModel struct {
	sess     *session
	messages <-chan Message
	recent   []Message
	quitting bool
}

func runStatusTUI(sess *session, messages chan Message) error {
	p := tea.NewProgram(statusModel{sess: sess, messages: messages})
	_, err := p.Run()
	return err
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForMessage(m.messages))
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForMessage(ch <-chan Message) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickCmd()
	case Message:
		m.recent = append(m.recent, msg)
		if len(m.recent) > 8 {
			m.recent = m.recent[len(m.recent)-8:]
		}
		return m, waitForMessage(m.messages)
	}
	return m, nil
}

func (m statusModel) View() string {
	if m.quitting {
		return ""
	}

	stats := m.sess.stats.Clone()
	state := m.sess.eng.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("mqttc"))
	b.WriteString("\n")
	b.WriteString(row("status", stateLabel(state)))
	b.WriteString(row("bytes sent", fmt.Sprintf("%d", stats.BytesSent)))
	b.WriteString(row("bytes received", fmt.Sprintf("%d", stats.BytesReceived)))
	b.WriteString(row("frames sent", fmt.Sprintf("%d", stats.FramesSent)))
	b.WriteString(row("frames received", fmt.Sprintf("%d", stats.FramesReceived)))
	b.WriteString(row("pings sent", fmt.Sprintf("%d", stats.PingsSent)))
	b.WriteString(row("ping timeouts", fmt.Sprintf("%d", stats.PingTimeouts)))
	b.WriteString(row("in-flight", fmt.Sprintf("%d (peak %d)", stats.InFlightCurrent, stats.InFlightPeak)))

	if len(m.recent) > 0 {
		b.WriteString("\n" + labelStyle.Render("recent messages") + "\n")
		for _, msg := range m.recent {
			b.WriteString(fmt.Sprintf("  %s: %s\n", msg.Topic, truncate(string(msg.Payload), 60)))
		}
	}

	view := boxStyle.Render(b.String())
	return view + "\n" + helpStyle.Render("press q to quit")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func stateLabel(s engine.ConnStatus) string {
	switch s {
	case engine.StatusConnected:
		return lipgloss.NewStyle().Foreground(successColor).Render("Connected")
	case engine.StatusConnecting:
		return lipgloss.NewStyle().Foreground(warningColor).Render("Connecting")
	default:
		return "NotConnected"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
