package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/log"
	"github.com/strictqa/strictqa/internal/pipeline"
	"github.com/strictqa/strictqa/internal/session"
)

type mockConversations struct {
	sessions map[uuid.UUID]*session.Session
	turnRes  pipeline.Result
	turnErr  error

	lastInput string
}

func newMockConversations() *mockConversations {
	return &mockConversations{sessions: make(map[uuid.UUID]*session.Session)}
}

func (m *mockConversations) StartSession() uuid.UUID {
	id := uuid.New()
	m.sessions[id] = &session.Session{ID: id}
	return id
}

func (m *mockConversations) HandleTurn(_ context.Context, id uuid.UUID, input string) (pipeline.Result, error) {
	m.lastInput = input
	if m.turnErr != nil {
		return pipeline.Result{}, m.turnErr
	}
	if sess, ok := m.sessions[id]; ok && !m.turnRes.Closed && !m.turnRes.Skipped {
		sess.Turns = append(sess.Turns, session.Turn{Query: input, Answer: m.turnRes.Answer})
	}
	if m.turnRes.Closed {
		delete(m.sessions, id)
	}
	return m.turnRes, nil
}

func (m *mockConversations) Snapshot(id uuid.UUID) (session.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return *sess, nil
}

// newTestClient returns a test server plus a cookie-keeping client that
// does not follow redirects, so handlers can be asserted individually.
func newTestClient(t *testing.T, conv Conversations) (*httptest.Server, *http.Client) {
	t.Helper()
	srv, err := NewServer(conv, log.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return ts, client
}

func TestIndexSetsSessionCookie(t *testing.T) {
	conv := newMockConversations()
	ts, client := newTestClient(t, conv)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ask a question")

	u, _ := url.Parse(ts.URL)
	var found bool
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "sid" {
			found = true
			_, err := uuid.Parse(c.Value)
			assert.NoError(t, err)
		}
	}
	assert.True(t, found, "sid cookie must be set")
	assert.Len(t, conv.sessions, 1)
}

func TestChatRendersAnswerAfterRedirect(t *testing.T) {
	conv := newMockConversations()
	conv.turnRes = pipeline.Result{Answer: "Paris is the capital of France."}
	ts, client := newTestClient(t, conv)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(ts.URL+"/chat", url.Values{"input": {"capital of france?"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "capital of france?", conv.lastInput)

	resp, err = client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Paris is the capital of France.")
	assert.Contains(t, string(body), "capital of france?")
}

func TestChatClosingTurnClearsCookieAndShowsFarewell(t *testing.T) {
	conv := newMockConversations()
	conv.turnRes = pipeline.Result{Answer: pipeline.ClosingAck, Closed: true}
	ts, client := newTestClient(t, conv)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(ts.URL+"/chat", url.Values{"input": {"quit"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?closed=1", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/?closed=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Session ended")
}

func TestChatFailureRedirectsWithError(t *testing.T) {
	conv := newMockConversations()
	conv.turnErr = context.DeadlineExceeded
	ts, client := newTestClient(t, conv)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(ts.URL+"/chat", url.Values{"input": {"q"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/?error=1", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/?error=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "could not be answered")
}

func TestTemplateEscapesContent(t *testing.T) {
	conv := newMockConversations()
	conv.turnRes = pipeline.Result{Answer: "<script>alert(1)</script>"}
	ts, client := newTestClient(t, conv)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(ts.URL+"/chat", url.Values{"input": {"xss?"}})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<script>alert(1)</script>")
	assert.Contains(t, string(body), "&lt;script&gt;")
}

func TestNewServerRequiresConversations(t *testing.T) {
	_, err := NewServer(nil, log.NewNop())
	assert.Error(t, err)
}
