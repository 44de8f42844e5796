package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hupe1980/lettago/identifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const msgID = "message-2b5e1c7a-9f7e-4b7c-8a41-0d1f5c1e6a90"

func TestDecode_KnownVariants(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, m Message)
	}{
		{
			name: "reasoning",
			raw:  `{"message_type":"reasoning_message","id":"` + msgID + `","date":"2025-03-01T10:00:00Z","reasoning":"user wants a count","source":"reasoner_model"}`,
			check: func(t *testing.T, m Message) {
				r, ok := m.(ReasoningMessage)
				require.True(t, ok)
				assert.Equal(t, "user wants a count", r.Reasoning)
				assert.Equal(t, "reasoner_model", r.Source)
				assert.Equal(t, identifier.MustParse(msgID), r.ID)
				assert.True(t, r.Date.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
			},
		},
		{
			name: "assistant string content",
			raw:  `{"message_type":"assistant_message","content":"3 turns"}`,
			check: func(t *testing.T, m Message) {
				a, ok := m.(AssistantMessage)
				require.True(t, ok)
				assert.Equal(t, "3 turns", a.Content)
			},
		},
		{
			name: "assistant content parts",
			raw:  `{"message_type":"assistant_message","content":[{"type":"text","text":"3 "},{"type":"text","text":"turns"}]}`,
			check: func(t *testing.T, m Message) {
				a, ok := m.(AssistantMessage)
				require.True(t, ok)
				assert.Equal(t, "3 turns", a.Content)
			},
		},
		{
			name: "tool call",
			raw:  `{"message_type":"tool_call_message","tool_call":{"name":"conversation_search","arguments":"{\"query\":\"turns\"}","tool_call_id":"call_1"}}`,
			check: func(t *testing.T, m Message) {
				c, ok := m.(ToolCallMessage)
				require.True(t, ok)
				assert.Equal(t, "conversation_search", c.ToolCall.Name)
				assert.Equal(t, "call_1", c.ToolCall.ToolCallID)

				var args struct {
					Query string `json:"query"`
				}
				require.NoError(t, c.ToolCall.Arguments.Decode(&args))
				assert.Equal(t, "turns", args.Query)
			},
		},
		{
			name: "tool calls list only",
			raw:  `{"message_type":"tool_call_message","tool_calls":[{"name":"a","arguments":{},"tool_call_id":"1"},{"name":"b","arguments":{},"tool_call_id":"2"}]}`,
			check: func(t *testing.T, m Message) {
				c, ok := m.(ToolCallMessage)
				require.True(t, ok)
				require.Len(t, c.ToolCalls, 2)
				assert.Equal(t, "a", c.ToolCall.Name)
			},
		},
		{
			name: "tool return",
			raw:  `{"message_type":"tool_return_message","tool_return":{"count":3},"status":"success","tool_call_id":"call_1","stdout":["ok"]}`,
			check: func(t *testing.T, m Message) {
				r, ok := m.(ToolReturnMessage)
				require.True(t, ok)
				assert.JSONEq(t, `{"count":3}`, string(r.ToolReturn))
				assert.Equal(t, "success", r.Status)
				assert.Equal(t, []string{"ok"}, r.Stdout)
			},
		},
		{
			name: "system",
			raw:  `{"message_type":"system_message","content":"You are helpful."}`,
			check: func(t *testing.T, m Message) {
				s, ok := m.(SystemMessage)
				require.True(t, ok)
				assert.Equal(t, "You are helpful.", s.Content)
			},
		},
		{
			name: "user",
			raw:  `{"message_type":"user_message","content":"hi","otid":"otid-1"}`,
			check: func(t *testing.T, m Message) {
				u, ok := m.(UserMessage)
				require.True(t, ok)
				assert.Equal(t, "hi", u.Content)
				assert.Equal(t, "otid-1", u.OTID)
			},
		},
		{
			name: "hidden reasoning",
			raw:  `{"message_type":"hidden_reasoning_message","state":"redacted"}`,
			check: func(t *testing.T, m Message) {
				h, ok := m.(HiddenReasoningMessage)
				require.True(t, ok)
				assert.Equal(t, "redacted", h.State)
			},
		},
		{
			name: "approval request",
			raw:  `{"message_type":"approval_request_message","tool_call":{"name":"bash","arguments":"{\"cmd\":\"ls\"}","tool_call_id":"call_9"}}`,
			check: func(t *testing.T, m Message) {
				a, ok := m.(ApprovalRequestMessage)
				require.True(t, ok)
				assert.Equal(t, "bash", a.ToolCall.Name)
				assert.Equal(t, "call_9", a.ToolCall.ToolCallID)
			},
		},
		{
			name: "approval response",
			raw:  `{"message_type":"approval_response_message","approve":true,"approval_request_id":"message-x"}`,
			check: func(t *testing.T, m Message) {
				a, ok := m.(ApprovalResponseMessage)
				require.True(t, ok)
				require.NotNil(t, a.Approve)
				assert.True(t, *a.Approve)
			},
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Decode([]byte(tt.raw), i)
			assert.Equal(t, i, m.Meta().Position)
			assert.True(t, m.Type().Known())
			tt.check(t, m)
		})
	}
}

func TestDecode_FailsClosed(t *testing.T) {
	tests := map[string]struct {
		raw  string
		err  error
		disc Type
	}{
		"future kind":           {`{"message_type":"future_kind","foo":1}`, ErrUnknownDiscriminant, "future_kind"},
		"missing discriminant":  {`{"content":"hi"}`, ErrMissingDiscriminant, ""},
		"null discriminant":     {`{"message_type":null}`, ErrMissingDiscriminant, ""},
		"numeric discriminant":  {`{"message_type":7}`, ErrMissingDiscriminant, ""},
		"not an object":         {`["assistant_message"]`, ErrMalformed, ""},
		"invalid json":          {`{"message_type":`, ErrMalformed, ""},
		"missing content":       {`{"message_type":"assistant_message"}`, ErrShapeMismatch, TypeAssistant},
		"numeric content":       {`{"message_type":"assistant_message","content":42}`, ErrShapeMismatch, TypeAssistant},
		"image content part":    {`{"message_type":"user_message","content":[{"type":"image","source":{}}]}`, ErrShapeMismatch, TypeUser},
		"null reasoning":        {`{"message_type":"reasoning_message","reasoning":null}`, ErrShapeMismatch, TypeReasoning},
		"tool call not object":  {`{"message_type":"tool_call_message","tool_call":"bash"}`, ErrShapeMismatch, TypeToolCall},
		"missing tool return":   {`{"message_type":"tool_return_message","status":"success"}`, ErrShapeMismatch, TypeToolReturn},
		"malformed id":          {`{"message_type":"assistant_message","id":"message-nope","content":"x"}`, ErrShapeMismatch, TypeAssistant},
		"malformed date":        {`{"message_type":"assistant_message","date":"yesterday","content":"x"}`, ErrShapeMismatch, TypeAssistant},
		"wrong stdout type":     {`{"message_type":"tool_return_message","tool_return":"x","stdout":"oops"}`, ErrShapeMismatch, TypeToolReturn},
		"approval w/o decision": {`{"message_type":"approval_response_message","reason":"?"}`, ErrShapeMismatch, TypeApprovalResponse},
		"duplicate field":       {`{"message_type":"assistant_message","content":"a","content":null}`, ErrShapeMismatch, TypeAssistant},
		"duplicate type":        {`{"message_type":"assistant_message","message_type":"future_kind","content":"a"}`, ErrShapeMismatch, TypeAssistant},
		"duplicate call key":    {`{"message_type":"tool_call_message","tool_call":{"name":"a","name":"b"}}`, ErrShapeMismatch, TypeToolCall},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := Decode([]byte(tt.raw), 3)
			u, ok := m.(Unknown)
			require.True(t, ok, "expected Unknown, got %T", m)
			assert.ErrorIs(t, u.Err, tt.err)
			assert.Equal(t, tt.disc, u.Type())
			assert.Equal(t, tt.raw, string(u.Raw))
			assert.Equal(t, 3, u.Position)

			out, err := json.Marshal(u)
			if tt.err == ErrMalformed {
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, string(out))
		})
	}
}

func TestDecode_UnknownKeepsMetadata(t *testing.T) {
	m := Decode([]byte(`{"message_type":"future_kind","id":"`+msgID+`","run_id":"run-1","foo":1}`), 0)
	u, ok := m.(Unknown)
	require.True(t, ok)
	assert.Equal(t, identifier.MustParse(msgID), u.ID)
	assert.Equal(t, "run-1", u.RunID)
	assert.False(t, u.Type().Known())
}

func TestDecode_CopiesInput(t *testing.T) {
	raw := []byte(`{"message_type":"future_kind","foo":1}`)
	m := Decode(raw, 0)
	raw[2] = 'X'
	assert.Equal(t, `{"message_type":"future_kind","foo":1}`, string(m.(Unknown).Raw))
}

func TestPayload_ByteRoundTrip(t *testing.T) {
	args := `{"query":"turns","filters":{"roles":["user","assistant"],"limit":10,"exact":1.50}}`
	ret := `"Found 3 messages <incl. system>"`
	raw := `{"message_type":"tool_call_message","tool_call":{"name":"search","arguments":` + args + `,"tool_call_id":"c1"}}`

	m := Decode([]byte(raw), 0)
	call, ok := m.(ToolCallMessage)
	require.True(t, ok)

	out, err := call.ToolCall.Arguments.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, args, string(out))

	m = Decode([]byte(`{"message_type":"tool_return_message","tool_return":`+ret+`}`), 0)
	tr, ok := m.(ToolReturnMessage)
	require.True(t, ok)
	out, err = tr.ToolReturn.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, ret, string(out))
	assert.Equal(t, "Found 3 messages <incl. system>", tr.ToolReturn.Text())
}

func TestVariant_ReEncode(t *testing.T) {
	raws := []string{
		`{"message_type":"reasoning_message","id":"` + msgID + `","date":"2025-03-01T10:00:00Z","seq_id":4,"reasoning":"thinking"}`,
		`{"message_type":"assistant_message","name":"bot","content":"3 turns & a <b>"}`,
		`{"message_type":"tool_call_message","tool_call":{"name":"f","arguments":{"a":[1,2]},"tool_call_id":"c"}}`,
		`{"message_type":"tool_call_message","tool_call":{"name":"bash","arguments":{"cmd": "echo a<b && ls",  "n": 1.50},"tool_call_id":"c1"}}`,
		`{"message_type":"tool_call_message","tool_call":{"name":"f","arguments":{ "x" : 1 },"tool_call_id":"c"},"tool_calls":[{"name":"f","arguments":{ "x" : 1 },"tool_call_id":"c"},{"name":"g","arguments":"{\"y\": \"<2>\"}","tool_call_id":"d"}]}`,
		`{"message_type":"approval_request_message","tool_call":{"name":"rm","arguments":{"path": "a&b"},"tool_call_id":"c"}}`,
		`{"message_type":"tool_return_message","tool_return":{"ok": true, "out": "x > y"},"status":"success","tool_call_id":"c"}`,
		`{"message_type":"tool_return_message","tool_return":"Found 3 <msgs> & more"}`,
		`{"message_type":"hidden_reasoning_message","state":"omitted"}`,
		`{"message_type":"approval_response_message","approvals":[ {"type":"tool", "tool_call_id":"c"} ]}`,
	}
	for _, raw := range raws {
		m := Decode([]byte(raw), 0)
		_, isUnknown := m.(Unknown)
		require.False(t, isUnknown, raw)

		out, err := m.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, raw, string(out))

		// json.Marshal compacts and escapes but stays equivalent
		compact, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(compact))

		again := Decode(out, 0)
		assert.Equal(t, m, again)
	}
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType("tool_call_message")
	assert.True(t, ok)
	assert.Equal(t, TypeToolCall, typ)

	typ, ok = ParseType("usage_statistics")
	assert.False(t, ok)
	assert.Equal(t, TypeUsage, typ)

	_, ok = ParseType("future_kind")
	assert.False(t, ok)
}
