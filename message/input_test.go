package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleConstructors(t *testing.T) {
	tests := []struct {
		msg  Create
		role Role
	}{
		{User("How many turns in this conversation?"), RoleUser},
		{System("be brief"), RoleSystem},
		{Assistant(""), RoleAssistant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.role, tt.msg.Role)
	}
	assert.Equal(t, "How many turns in this conversation?", tests[0].msg.Content)
	assert.Equal(t, "", tests[2].msg.Content)
}

func TestCreate_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(User("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(out))

	out, err = json.Marshal(Create{Role: RoleSystem, Content: "", Name: "ops", OTID: "o-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"system","content":"","name":"ops","otid":"o-1"}`, string(out))
}

func TestApproval_MarshalJSON(t *testing.T) {
	in := Approval(
		ToolResult("call_1", "file.txt", ToolStatusSuccess),
		ToolResult("call_2", "boom", ToolStatusError),
		Decision("call_3", false, "not allowed"),
	)
	out, err := json.Marshal([]Input{in})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"approval","approvals":[
		{"type":"tool","tool_call_id":"call_1","tool_return":"file.txt","status":"success"},
		{"type":"tool","tool_call_id":"call_2","tool_return":"boom","status":"error"},
		{"type":"approval","tool_call_id":"call_3","approve":false,"reason":"not allowed"}
	]}]`, string(out))
}

func TestApproval_DefaultsStatusAndEmptyList(t *testing.T) {
	out, err := json.Marshal(ApprovalReturn{Kind: ApprovalKindTool, ToolCallID: "c", ToolReturn: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool","tool_call_id":"c","tool_return":"x","status":"success"}`, string(out))

	out, err = json.Marshal(Approval())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"approval","approvals":[]}`, string(out))
}

func TestPayload(t *testing.T) {
	var p Payload
	assert.True(t, p.IsNull())
	assert.Equal(t, "", p.Text())
	out, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	p, err = NewPayload(map[string]int{"n": 1})
	require.NoError(t, err)
	var m map[string]int
	require.NoError(t, p.Decode(&m))
	assert.Equal(t, 1, m["n"])
	assert.Equal(t, `{"n":1}`, p.Text())

	// JSON document embedded in a string.
	p = Payload(`"{\"n\":2}"`)
	require.NoError(t, p.Decode(&m))
	assert.Equal(t, 2, m["n"])

	var s string
	require.NoError(t, p.Decode(&s))
	assert.Equal(t, `{"n":2}`, s)

	assert.NoError(t, Payload("null").Decode(&m))
}
