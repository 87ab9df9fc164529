// Package tui provides the Bubble Tea terminal interface.
package tui

import (
	"context"
	"errors"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/google/uuid"

	"github.com/strictqa/strictqa/internal/pipeline"
)

// State represents the TUI state machine.
type State int

// TUI states.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Turn in flight
	StateClosed                // Session ended, quitting
)

const (
	maxMessages = 200
	maxHistory  = 100
)

// Message role constants for display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2
	helpLines      = 1
	inputLines     = 1
	minViewport    = 3
)

// Conversations is the slice of the pipeline the TUI needs.
type Conversations interface {
	HandleTurn(ctx context.Context, id uuid.UUID, input string) (pipeline.Result, error)
}

// Message is one rendered conversation line.
type Message struct {
	Role string
	Text string
}

// Model is the Bubble Tea model for the question-answering terminal.
type Model struct {
	input      textarea.Model
	history    []string
	historyIdx int

	state     State
	closed    bool
	lastCtrlC time.Time

	spinner  spinner.Model
	messages []Message
	viewport viewport.Model

	help help.Model
	keys keyMap

	conversations Conversations
	sessionID     uuid.UUID
	ctx           context.Context
	ctxCancel     context.CancelFunc

	width  int
	height int

	styles Styles
}

// New creates a Model bound to an open session.
// ctx must be the same context passed to tea.WithContext.
func New(ctx context.Context, conversations Conversations, sessionID uuid.UUID) (*Model, error) {
	if conversations == nil {
		return nil, errors.New("tui.New: conversations are required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if sessionID == uuid.Nil {
		return nil, errors.New("tui.New: session ID is required")
	}

	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Ask a question (quit to end)..."
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	plain := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{Focused: plain, Blurred: plain})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		conversations: conversations,
		sessionID:     sessionID,
		ctx:           ctx,
		ctxCancel:     cancel,
		input:         ta,
		spinner:       sp,
		viewport:      vp,
		help:          help.New(),
		keys:          newKeyMap(),
		styles:        DefaultStyles(),
		history:       make([]string, 0, maxHistory),
		width:         80,
	}, nil
}

// SessionID returns the bound session.
func (m *Model) SessionID() uuid.UUID {
	return m.sessionID
}

// Closed reports whether the session ended through a termination keyword.
func (m *Model) Closed() bool {
	return m.closed
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
	)
}

// addMessage appends a message, dropping the oldest past maxMessages.
func (m *Model) addMessage(msg Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}
