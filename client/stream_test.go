package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/hupe1980/lettago/envelope"
	"github.com/hupe1980/lettago/internal/testutil"
	"github.com/hupe1980/lettago/logging"
	"github.com/hupe1980/lettago/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sseHandler(t *testing.T, chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agents/agent-d93e0978-c442-4425-ba5d-a4bf3c4096e5/messages/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func data(payload []byte) string { return fmt.Sprintf("data: %s\n\n", payload) }

func TestStream_Order(t *testing.T) {
	c := newTestClient(t, sseHandler(t,
		data(testutil.Reasoning("thinking")),
		data([]byte(`{"message_type":"ping"}`)),
		data(testutil.ToolCall("count_turns", `{"scope":"all"}`, "call-1")),
		data(testutil.ToolReturn("3", "call-1")),
		data(testutil.Assistant("3 turns")),
		data([]byte(`{"message_type":"stop_reason","stop_reason":"end_turn"}`)),
		data([]byte(`{"message_type":"usage_statistics","completion_tokens":5,"prompt_tokens":10,"total_tokens":15,"step_count":2}`)),
		"data: [DONE]\n\n",
	))

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "How many turns in this conversation?"))
	require.NoError(t, err)
	defer s.Close()

	var types []message.Type
	for s.Next() {
		m := s.Current()
		assert.Equal(t, len(types), m.Meta().Position)
		types = append(types, m.Type())
	}
	require.NoError(t, s.Err())

	assert.Equal(t, []message.Type{
		message.TypeReasoning,
		message.TypeToolCall,
		message.TypeToolReturn,
		message.TypeAssistant,
	}, types)

	require.NotNil(t, s.StopReason())
	assert.Equal(t, "end_turn", s.StopReason().Reason)
	require.NotNil(t, s.Usage())
	assert.Equal(t, 2, s.Usage().StepCount)
	assert.False(t, s.Next())
}

func TestStream_Collect(t *testing.T) {
	c := newTestClient(t, sseHandler(t,
		data(testutil.Assistant("3 ")),
		data(testutil.Assistant("turns")),
		data([]byte(`{"message_type":"future_kind","foo":1}`)),
		"data: [DONE]\n\n",
	))

	req, err := envelope.BuildRequest([]message.Input{message.User("hi")}, func(o *envelope.Options) {
		o.StreamTokens = true
	})
	require.NoError(t, err)

	s, err := c.StreamMessages(context.Background(), testAgent, req)
	require.NoError(t, err)

	resp, err := s.Collect()
	require.NoError(t, err)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, "3 ", resp.Messages[0].(message.AssistantMessage).Content)
	assert.Equal(t, "turns", resp.Messages[1].(message.AssistantMessage).Content)
	assert.Len(t, resp.Unknown(), 1)
	assert.Nil(t, resp.StopReason)
}

func TestStream_ErrorEvent(t *testing.T) {
	c := newTestClient(t, sseHandler(t,
		data(testutil.Reasoning("thinking")),
		"event: error\ndata: {\"error\":{\"type\":\"llm_error\",\"message\":\"provider unavailable\",\"status_code\":503}}\n\n",
	))

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	require.NoError(t, err)
	defer s.Close()

	require.True(t, s.Next())
	assert.False(t, s.Next())

	err = s.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "provider unavailable", e.Detail)
	assert.Equal(t, 503, e.StatusCode)
}

func TestStream_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, []byte(`{"detail":"Agent not found"}`))
	})

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestStream_TimeoutBoundsWholeStream(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, data(testutil.Assistant("partial")))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}, func(o *Options) { o.Timeout = 100 * time.Millisecond })
	t.Cleanup(func() { close(release) })

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	require.NoError(t, err)
	defer s.Close()

	require.True(t, s.Next())
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), ErrTimeout)
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	c := newTestClient(t, sseHandler(t, data(testutil.Assistant("x")), "data: [DONE]\n\n"))

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_ = s.Close()
		_ = s.Close()
	})
	assert.False(t, s.Next())
}

func TestStream_LogsDurationOnClose(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf})
	c := newTestClient(t, sseHandler(t, data(testutil.Assistant("x")), "data: [DONE]\n\n"),
		func(o *Options) { o.Logger = logger })

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "operation completed")

	_, err = s.Collect()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"operation completed"`)
	assert.Contains(t, buf.String(), `"operation":"stream messages"`)

	// a second Close does not log again
	n := bytes.Count(buf.Bytes(), []byte("operation completed"))
	require.NoError(t, s.Close())
	assert.Equal(t, n, bytes.Count(buf.Bytes(), []byte("operation completed")))
}

func TestStream_NilResponseBody(t *testing.T) {
	doer := &mockDoer{}
	doer.On("Do", mock.Anything).Return(&http.Response{StatusCode: http.StatusOK, Status: "200 OK"}, nil).Once()
	c, err := New("http://letta.test", func(o *Options) { o.HTTPClient = doer })
	require.NoError(t, err)

	s, err := c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	require.NoError(t, err)

	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	assert.NotPanics(t, func() {
		assert.NoError(t, s.Close())
		assert.NoError(t, s.Close())
	})
	doer.AssertExpectations(t)
}

func TestStream_RejectedWithNilBody(t *testing.T) {
	doer := &mockDoer{}
	doer.On("Do", mock.Anything).Return(&http.Response{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"}, nil).Once()
	c, err := New("http://letta.test", func(o *Options) { o.HTTPClient = doer })
	require.NoError(t, err)

	var s *Stream
	assert.NotPanics(t, func() {
		s, err = c.StreamMessages(context.Background(), testAgent, userRequest(t, "hi"))
	})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrRejected)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadGateway, e.StatusCode)
}
