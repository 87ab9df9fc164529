package tui

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/pipeline"
)

type mockConversations struct {
	res pipeline.Result
	err error

	lastInput string
}

func (m *mockConversations) HandleTurn(_ context.Context, _ uuid.UUID, input string) (pipeline.Result, error) {
	m.lastInput = input
	if m.err != nil {
		return pipeline.Result{}, m.err
	}
	return m.res, nil
}

func newTestModel(t *testing.T, conv Conversations) *Model {
	t.Helper()
	m, err := New(context.Background(), conv, uuid.New())
	require.NoError(t, err)
	return m
}

func pressEnter(m *Model) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(context.Background(), nil, uuid.New())
	assert.Error(t, err)

	_, err = New(context.Background(), &mockConversations{}, uuid.Nil)
	assert.Error(t, err)
}

func TestSubmitMovesToThinking(t *testing.T) {
	conv := &mockConversations{res: pipeline.Result{Answer: "the answer"}}
	m := newTestModel(t, conv)
	m.input.SetValue("a question")

	next, cmd := pressEnter(m)
	model := next.(*Model)

	assert.Equal(t, StateThinking, model.state)
	require.NotNil(t, cmd)
	require.Len(t, model.messages, 1)
	assert.Equal(t, roleUser, model.messages[0].Role)
	assert.Equal(t, "a question", model.messages[0].Text)
	assert.Empty(t, model.input.Value())
}

func TestSubmitBlankInputIsIgnored(t *testing.T) {
	m := newTestModel(t, &mockConversations{})
	m.input.SetValue("   ")

	next, cmd := pressEnter(m)
	model := next.(*Model)

	assert.Equal(t, StateInput, model.state)
	assert.Nil(t, cmd)
	assert.Empty(t, model.messages)
}

func TestTurnDoneRendersAnswer(t *testing.T) {
	m := newTestModel(t, &mockConversations{})
	m.state = StateThinking

	next, _ := m.Update(turnDoneMsg{answer: "verbatim answer"})
	model := next.(*Model)

	assert.Equal(t, StateInput, model.state)
	require.Len(t, model.messages, 1)
	assert.Equal(t, roleAssistant, model.messages[0].Role)
	assert.Equal(t, "verbatim answer", model.messages[0].Text)
}

func TestTurnDoneClosedQuitsAfterFarewell(t *testing.T) {
	m := newTestModel(t, &mockConversations{})
	m.state = StateThinking

	next, cmd := m.Update(turnDoneMsg{answer: pipeline.ClosingAck, closed: true})
	model := next.(*Model)

	assert.Equal(t, StateClosed, model.state)
	assert.True(t, model.Closed())
	assert.NotNil(t, cmd, "expected delayed quit command")
	require.Len(t, model.messages, 1)
	assert.Equal(t, pipeline.ClosingAck, model.messages[0].Text)
}

func TestTurnFailedShowsError(t *testing.T) {
	m := newTestModel(t, &mockConversations{})
	m.state = StateThinking

	next, _ := m.Update(turnFailedMsg{err: errors.New("model down")})
	model := next.(*Model)

	assert.Equal(t, StateInput, model.state)
	require.Len(t, model.messages, 1)
	assert.Equal(t, roleError, model.messages[0].Role)
	assert.Contains(t, model.messages[0].Text, "model down")
}

func TestSubmitTurnCallsPipeline(t *testing.T) {
	conv := &mockConversations{res: pipeline.Result{Answer: "a"}}
	m := newTestModel(t, conv)

	cmd := m.submitTurn("my question")
	msg := cmd()

	done, ok := msg.(turnDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "a", done.answer)
	assert.Equal(t, "my question", conv.lastInput)
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel(t, &mockConversations{res: pipeline.Result{Answer: "a"}})

	m.input.SetValue("first")
	pressEnter(m)
	m.state = StateInput
	m.input.SetValue("second")
	pressEnter(m)
	m.state = StateInput

	m.navigateHistory(-1)
	assert.Equal(t, "second", m.input.Value())
	m.navigateHistory(-1)
	assert.Equal(t, "first", m.input.Value())
	m.navigateHistory(1)
	m.navigateHistory(1)
	assert.Empty(t, m.input.Value())
}

func TestMessageBound(t *testing.T) {
	m := newTestModel(t, &mockConversations{})
	for range maxMessages + 10 {
		m.addMessage(Message{Role: roleUser, Text: "x"})
	}
	assert.Len(t, m.messages, maxMessages)
}
