package tui

import (
	"context"
	"errors"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// turnDoneMsg carries the outcome of a completed turn.
type turnDoneMsg struct {
	answer  string
	closed  bool
	skipped bool
}

// turnFailedMsg carries a fatal turn error.
type turnFailedMsg struct {
	err error
}

// quitMsg triggers program exit after the farewell has been shown.
type quitMsg struct{}

// submitTurn runs one turn against the pipeline off the event loop.
func (m *Model) submitTurn(input string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := m.conversations.HandleTurn(ctx, m.sessionID, input)
		if err != nil {
			return turnFailedMsg{err: err}
		}
		return turnDoneMsg{answer: res.Answer, closed: res.Closed, skipped: res.Skipped}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		fixedHeight := separatorLines + m.input.Height() + inputLines + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4)
		m.help.SetWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateThinking {
			m.rebuildViewportContent()
		}
		return m, cmd

	case turnDoneMsg:
		if msg.skipped {
			m.state = StateInput
			return m, m.input.Focus()
		}

		m.addMessage(Message{Role: roleAssistant, Text: msg.answer})
		m.rebuildViewportContent()
		m.viewport.GotoBottom()

		if msg.closed {
			m.state = StateClosed
			m.closed = true
			// Leave the farewell on screen briefly before quitting.
			return m, tea.Tick(750*time.Millisecond, func(time.Time) tea.Msg {
				return quitMsg{}
			})
		}

		m.state = StateInput
		return m, m.input.Focus()

	case turnFailedMsg:
		m.state = StateInput
		switch {
		case errors.Is(msg.err, context.Canceled):
			m.addMessage(Message{Role: roleSystem, Text: "(Canceled)"})
		case errors.Is(msg.err, context.DeadlineExceeded):
			m.addMessage(Message{Role: roleError, Text: "The turn timed out. Try again."})
		default:
			m.addMessage(Message{Role: roleError, Text: msg.err.Error()})
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()

	case quitMsg:
		return m, m.cleanup()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
