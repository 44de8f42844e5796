package message

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/hupe1980/lettago/identifier"
	"github.com/tidwall/sjson"
)

// Message is a server-authored message. Concrete variants implement the
// unexported isMessage marker, which keeps the set closed.
type Message interface {
	json.Marshaler
	// Type returns the discriminant. For Unknown it is the raw value seen on
	// the wire, possibly empty.
	Type() Type
	// Meta returns the fields shared by every variant.
	Meta() Metadata
	isMessage()
}

// Metadata holds the fields common to all inbound messages.
type Metadata struct {
	ID       identifier.Identifier `json:"id,omitzero"`
	Date     time.Time             `json:"date,omitzero"`
	Name     string                `json:"name,omitempty"`
	OTID     string                `json:"otid,omitempty"`
	SenderID string                `json:"sender_id,omitempty"`
	StepID   string                `json:"step_id,omitempty"`
	RunID    string                `json:"run_id,omitempty"`
	SeqID    *int64                `json:"seq_id,omitempty"`
	IsErr    bool                  `json:"is_err,omitempty"`
	// Position is the zero based index of the message within the response or
	// stream it was decoded from. It is not part of the wire format.
	Position int `json:"-"`
}

// Meta returns m.
func (m Metadata) Meta() Metadata { return m }

// SystemMessage is a system prompt recorded in the agent's history.
type SystemMessage struct {
	Metadata
	Content string
}

// UserMessage is a user message recorded in the agent's history.
type UserMessage struct {
	Metadata
	Content string
}

// ReasoningMessage is a free-text reasoning trace.
type ReasoningMessage struct {
	Metadata
	Reasoning string
	// Source is "reasoner_model" or "non_reasoner_model" when provided.
	Source    string
	Signature string
}

// HiddenReasoningMessage stands in for reasoning the model provider redacted
// or omitted.
type HiddenReasoningMessage struct {
	Metadata
	State           string
	HiddenReasoning string
}

// AssistantMessage is text intended for the end user.
type AssistantMessage struct {
	Metadata
	Content string
}

// ToolCall names a tool and carries its arguments. The argument schema belongs
// to the tool; use Arguments.Decode to read it.
type ToolCall struct {
	Name       string  `json:"name"`
	Arguments  Payload `json:"arguments"`
	ToolCallID string  `json:"tool_call_id"`
}

// ToolCallMessage reports a tool invocation performed by the agent.
type ToolCallMessage struct {
	Metadata
	ToolCall ToolCall
	// ToolCalls is set when the server reports parallel calls.
	ToolCalls []ToolCall
}

// ToolReturnMessage carries the result of a prior tool call.
type ToolReturnMessage struct {
	Metadata
	ToolReturn Payload
	Status     string
	ToolCallID string
	Stdout     []string
	Stderr     []string
}

// ApprovalRequestMessage asks the caller to execute or approve a tool call.
type ApprovalRequestMessage struct {
	Metadata
	ToolCall  ToolCall
	ToolCalls []ToolCall
}

// ApprovalResponseMessage records the caller's answer to an approval request.
type ApprovalResponseMessage struct {
	Metadata
	Approve           *bool
	ApprovalRequestID string
	Reason            string
	Approvals         Payload
}

// Unknown preserves a message this package could not map onto a variant.
type Unknown struct {
	Metadata
	// Discriminant is the "message_type" value as received, if any.
	Discriminant Type
	// Raw is the complete payload as received.
	Raw []byte
	// Err explains why the payload was not decoded as a known variant.
	Err error
}

func (SystemMessage) isMessage()           {}
func (UserMessage) isMessage()             {}
func (ReasoningMessage) isMessage()        {}
func (HiddenReasoningMessage) isMessage()  {}
func (AssistantMessage) isMessage()        {}
func (ToolCallMessage) isMessage()         {}
func (ToolReturnMessage) isMessage()       {}
func (ApprovalRequestMessage) isMessage()  {}
func (ApprovalResponseMessage) isMessage() {}
func (Unknown) isMessage()                 {}

// Type implements Message.
func (SystemMessage) Type() Type { return TypeSystem }

// Type implements Message.
func (UserMessage) Type() Type { return TypeUser }

// Type implements Message.
func (ReasoningMessage) Type() Type { return TypeReasoning }

// Type implements Message.
func (HiddenReasoningMessage) Type() Type { return TypeHiddenReasoning }

// Type implements Message.
func (AssistantMessage) Type() Type { return TypeAssistant }

// Type implements Message.
func (ToolCallMessage) Type() Type { return TypeToolCall }

// Type implements Message.
func (ToolReturnMessage) Type() Type { return TypeToolReturn }

// Type implements Message.
func (ApprovalRequestMessage) Type() Type { return TypeApprovalRequest }

// Type implements Message.
func (ApprovalResponseMessage) Type() Type { return TypeApprovalResponse }

// Type implements Message.
func (u Unknown) Type() Type { return u.Discriminant }

// MarshalJSON implements json.Marshaler.
func (m SystemMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeSystem, m.Metadata, struct {
		Content string `json:"content"`
	}{m.Content})
}

// MarshalJSON implements json.Marshaler.
func (m UserMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeUser, m.Metadata, struct {
		Content string `json:"content"`
	}{m.Content})
}

// MarshalJSON implements json.Marshaler.
func (m ReasoningMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeReasoning, m.Metadata, struct {
		Reasoning string `json:"reasoning"`
		Source    string `json:"source,omitempty"`
		Signature string `json:"signature,omitempty"`
	}{m.Reasoning, m.Source, m.Signature})
}

// MarshalJSON implements json.Marshaler.
func (m HiddenReasoningMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeHiddenReasoning, m.Metadata, struct {
		State           string `json:"state"`
		HiddenReasoning string `json:"hidden_reasoning,omitempty"`
	}{m.State, m.HiddenReasoning})
}

// MarshalJSON implements json.Marshaler.
func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeAssistant, m.Metadata, struct {
		Content string `json:"content"`
	}{m.Content})
}

// MarshalJSON implements json.Marshaler.
func (m ToolCallMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeToolCall, m.Metadata, struct {
		ToolCall  ToolCall   `json:"tool_call"`
		ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	}{m.ToolCall, m.ToolCalls}, callPayloads(m.ToolCall, m.ToolCalls)...)
}

// MarshalJSON implements json.Marshaler.
func (m ToolReturnMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeToolReturn, m.Metadata, struct {
		ToolReturn Payload  `json:"tool_return"`
		Status     string   `json:"status,omitempty"`
		ToolCallID string   `json:"tool_call_id,omitempty"`
		Stdout     []string `json:"stdout,omitempty"`
		Stderr     []string `json:"stderr,omitempty"`
	}{m.ToolReturn, m.Status, m.ToolCallID, m.Stdout, m.Stderr}, rawField{"tool_return", m.ToolReturn})
}

// MarshalJSON implements json.Marshaler.
func (m ApprovalRequestMessage) MarshalJSON() ([]byte, error) {
	return marshalVariant(TypeApprovalRequest, m.Metadata, struct {
		ToolCall  ToolCall   `json:"tool_call"`
		ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	}{m.ToolCall, m.ToolCalls}, callPayloads(m.ToolCall, m.ToolCalls)...)
}

// MarshalJSON implements json.Marshaler.
func (m ApprovalResponseMessage) MarshalJSON() ([]byte, error) {
	var approvals Payload
	if !m.Approvals.IsNull() {
		approvals = m.Approvals
	}
	return marshalVariant(TypeApprovalResponse, m.Metadata, struct {
		Approve           *bool   `json:"approve,omitempty"`
		ApprovalRequestID string  `json:"approval_request_id,omitempty"`
		Reason            string  `json:"reason,omitempty"`
		Approvals         Payload `json:"approvals,omitempty"`
	}{m.Approve, m.ApprovalRequestID, m.Reason, approvals}, rawField{"approvals", approvals})
}

// MarshalJSON returns the payload exactly as it was received.
func (u Unknown) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return null, nil
	}
	return u.Raw, nil
}

// rawField is a payload written back at path exactly as it was received.
type rawField struct {
	path  string
	value Payload
}

func callPayloads(call ToolCall, calls []ToolCall) []rawField {
	raws := make([]rawField, 0, len(calls)+1)
	raws = append(raws, rawField{"tool_call.arguments", call.Arguments})
	for i, c := range calls {
		raws = append(raws, rawField{"tool_calls." + strconv.Itoa(i) + ".arguments", c.Arguments})
	}
	return raws
}

// marshalVariant encodes the discriminant, the metadata and the variant
// fields as one flat JSON object. Payloads listed in raws replace whatever
// the encoder produced for them, so their bytes are kept verbatim.
//
// Calling json.Marshal on a message compacts and HTML-escapes the result;
// call MarshalJSON directly when payload bytes must survive unchanged.
func marshalVariant(t Type, meta Metadata, fields any, raws ...rawField) ([]byte, error) {
	head, err := encode(struct {
		Type Type `json:"message_type"`
		Metadata
	}{t, meta})
	if err != nil {
		return nil, err
	}
	body, err := encode(fields)
	if err != nil {
		return nil, err
	}
	out := head
	if len(body) > 2 {
		var buf bytes.Buffer
		buf.Grow(len(head) + len(body))
		buf.Write(head[:len(head)-1])
		buf.WriteByte(',')
		buf.Write(body[1:])
		out = buf.Bytes()
	}
	for _, r := range raws {
		if len(r.value) == 0 {
			continue
		}
		if out, err = sjson.SetRawBytes(out, r.path, r.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// encode marshals v without HTML escaping.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
