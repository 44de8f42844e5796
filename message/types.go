package message

// Type is the value of the "message_type" discriminant.
type Type string

// Known inbound message types.
const (
	TypeSystem           Type = "system_message"
	TypeUser             Type = "user_message"
	TypeReasoning        Type = "reasoning_message"
	TypeHiddenReasoning  Type = "hidden_reasoning_message"
	TypeAssistant        Type = "assistant_message"
	TypeToolCall         Type = "tool_call_message"
	TypeToolReturn       Type = "tool_return_message"
	TypeApprovalRequest  Type = "approval_request_message"
	TypeApprovalResponse Type = "approval_response_message"
)

// Control chunk types that only appear in streamed responses. They are not
// Message variants; the streaming decoder consumes them.
const (
	TypeStopReason Type = "stop_reason"
	TypeUsage      Type = "usage_statistics"
	TypePing       Type = "ping"
)

// Known reports whether t names a modeled Message variant.
func (t Type) Known() bool {
	_, ok := decoders[t]
	return ok
}

// ParseType returns the Type named by s and whether it is a modeled variant.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	return t, t.Known()
}

// String returns the wire value.
func (t Type) String() string { return string(t) }

// Role is the author role of an outbound message.
type Role string

// Supported roles.
const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)
