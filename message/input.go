package message

import "encoding/json"

// Input is a caller-authored message. The set of implementations is closed:
// Create and ApprovalCreate.
type Input interface {
	json.Marshaler
	isInput()
}

// Create is a plain role/content message.
type Create struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
	// OTID is an optional offline threading id echoed back by the server.
	OTID string `json:"otid,omitempty"`
}

func (Create) isInput() {}

// MarshalJSON implements json.Marshaler.
func (c Create) MarshalJSON() ([]byte, error) {
	type wire Create
	return json.Marshal(wire(c))
}

// User returns a user-authored message with content set verbatim.
func User(text string) Create { return Create{Role: RoleUser, Content: text} }

// System returns a system message with content set verbatim.
func System(text string) Create { return Create{Role: RoleSystem, Content: text} }

// Assistant returns an assistant message with content set verbatim.
func Assistant(text string) Create { return Create{Role: RoleAssistant, Content: text} }

// ToolStatus is the outcome of a client-side tool execution.
type ToolStatus string

// Tool execution outcomes.
const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ApprovalKind distinguishes the entries of an ApprovalCreate.
type ApprovalKind string

// Approval entry kinds.
const (
	// ApprovalKindTool carries the result of a tool executed by the caller.
	ApprovalKindTool ApprovalKind = "tool"
	// ApprovalKindDecision approves or denies a server-side tool call.
	ApprovalKindDecision ApprovalKind = "approval"
)

// ApprovalReturn answers one approval request. Build values with ToolResult
// or Decision.
type ApprovalReturn struct {
	Kind       ApprovalKind
	ToolCallID string
	// Tool result fields.
	ToolReturn string
	Status     ToolStatus
	Stdout     []string
	Stderr     []string
	// Decision fields.
	Approve bool
	Reason  string
}

// ToolResult reports the output of a tool the caller executed locally.
func ToolResult(toolCallID, output string, status ToolStatus) ApprovalReturn {
	return ApprovalReturn{Kind: ApprovalKindTool, ToolCallID: toolCallID, ToolReturn: output, Status: status}
}

// Decision approves or denies execution of a pending tool call.
func Decision(toolCallID string, approve bool, reason string) ApprovalReturn {
	return ApprovalReturn{Kind: ApprovalKindDecision, ToolCallID: toolCallID, Approve: approve, Reason: reason}
}

// MarshalJSON implements json.Marshaler.
func (a ApprovalReturn) MarshalJSON() ([]byte, error) {
	if a.Kind == ApprovalKindDecision {
		return json.Marshal(struct {
			Type       ApprovalKind `json:"type"`
			ToolCallID string       `json:"tool_call_id"`
			Approve    bool         `json:"approve"`
			Reason     string       `json:"reason,omitempty"`
		}{a.Kind, a.ToolCallID, a.Approve, a.Reason})
	}
	status := a.Status
	if status == "" {
		status = ToolStatusSuccess
	}
	return json.Marshal(struct {
		Type       ApprovalKind `json:"type"`
		ToolCallID string       `json:"tool_call_id"`
		ToolReturn string       `json:"tool_return"`
		Status     ToolStatus   `json:"status"`
		Stdout     []string     `json:"stdout,omitempty"`
		Stderr     []string     `json:"stderr,omitempty"`
	}{ApprovalKindTool, a.ToolCallID, a.ToolReturn, status, a.Stdout, a.Stderr})
}

// ApprovalCreate sends one or more approval answers back to the agent.
type ApprovalCreate struct {
	Approvals []ApprovalReturn
}

func (ApprovalCreate) isInput() {}

// Approval bundles answers into a single outbound message.
func Approval(returns ...ApprovalReturn) ApprovalCreate {
	return ApprovalCreate{Approvals: returns}
}

// MarshalJSON implements json.Marshaler.
func (a ApprovalCreate) MarshalJSON() ([]byte, error) {
	approvals := a.Approvals
	if approvals == nil {
		approvals = []ApprovalReturn{}
	}
	return json.Marshal(struct {
		Type      string           `json:"type"`
		Approvals []ApprovalReturn `json:"approvals"`
	}{"approval", approvals})
}
