package testutil

import (
	"encoding/json"
	"time"

	"github.com/hupe1980/lettago/identifier"
	"github.com/hupe1980/lettago/message"
)

// FixedDate is the default timestamp applied by MessageBuilder.
var FixedDate = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// MessageBuilder provides a fluent helper for constructing inbound message
// payloads in tests. Example:
//
//	raw := NewMessageBuilder(message.TypeAssistant).Field("content", "hi").Build()
//
// A fresh message id and FixedDate are applied by default.
type MessageBuilder struct {
	fields map[string]any
}

// NewMessageBuilder starts a payload with the given discriminant.
func NewMessageBuilder(t message.Type) *MessageBuilder {
	b := &MessageBuilder{fields: map[string]any{}}
	if t != "" {
		b.fields[message.DiscriminantField] = string(t)
	}
	id, err := identifier.New(identifier.TagMessage)
	if err != nil {
		panic(err)
	}
	b.fields["id"] = id.String()
	b.fields["date"] = FixedDate.Format(time.RFC3339)
	return b
}

// ID overrides the generated message id (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.fields["id"] = id; return b }

// SeqID sets the server sequence number (chainable).
func (b *MessageBuilder) SeqID(n int64) *MessageBuilder { b.fields["seq_id"] = n; return b }

// RunID sets the run id (chainable).
func (b *MessageBuilder) RunID(id string) *MessageBuilder { b.fields["run_id"] = id; return b }

// Field sets an arbitrary field (chainable).
func (b *MessageBuilder) Field(key string, value any) *MessageBuilder {
	b.fields[key] = value
	return b
}

// Without removes a field, including the defaults (chainable).
func (b *MessageBuilder) Without(key string) *MessageBuilder { delete(b.fields, key); return b }

// Build returns the JSON payload.
func (b *MessageBuilder) Build() []byte {
	raw, err := json.Marshal(b.fields)
	if err != nil {
		panic(err)
	}
	return raw
}

// Reasoning builds a reasoning_message payload.
func Reasoning(text string) []byte {
	return NewMessageBuilder(message.TypeReasoning).Field("reasoning", text).Build()
}

// Assistant builds an assistant_message payload.
func Assistant(text string) []byte {
	return NewMessageBuilder(message.TypeAssistant).Field("content", text).Build()
}

// ToolCall builds a tool_call_message payload with string encoded arguments.
func ToolCall(name, arguments, callID string) []byte {
	return NewMessageBuilder(message.TypeToolCall).Field("tool_call", map[string]any{
		"name":         name,
		"arguments":    arguments,
		"tool_call_id": callID,
	}).Build()
}

// ApprovalRequest builds an approval_request_message payload.
func ApprovalRequest(name, arguments, callID string) []byte {
	return NewMessageBuilder(message.TypeApprovalRequest).Field("tool_call", map[string]any{
		"name":         name,
		"arguments":    arguments,
		"tool_call_id": callID,
	}).Build()
}

// ToolReturn builds a successful tool_return_message payload.
func ToolReturn(result any, callID string) []byte {
	return NewMessageBuilder(message.TypeToolReturn).
		Field("tool_return", result).
		Field("status", "success").
		Field("tool_call_id", callID).
		Build()
}
