package message

import "fmt"

// Handler consumes inbound messages variant by variant. There is no default
// method: implementations decide explicitly what to do with Unknown.
type Handler interface {
	OnSystem(SystemMessage) error
	OnUser(UserMessage) error
	OnReasoning(ReasoningMessage) error
	OnHiddenReasoning(HiddenReasoningMessage) error
	OnAssistant(AssistantMessage) error
	OnToolCall(ToolCallMessage) error
	OnToolReturn(ToolReturnMessage) error
	OnApprovalRequest(ApprovalRequestMessage) error
	OnApprovalResponse(ApprovalResponseMessage) error
	OnUnknown(Unknown) error
}

// Dispatch routes m to the matching Handler method.
func Dispatch(m Message, h Handler) error {
	switch v := m.(type) {
	case SystemMessage:
		return h.OnSystem(v)
	case UserMessage:
		return h.OnUser(v)
	case ReasoningMessage:
		return h.OnReasoning(v)
	case HiddenReasoningMessage:
		return h.OnHiddenReasoning(v)
	case AssistantMessage:
		return h.OnAssistant(v)
	case ToolCallMessage:
		return h.OnToolCall(v)
	case ToolReturnMessage:
		return h.OnToolReturn(v)
	case ApprovalRequestMessage:
		return h.OnApprovalRequest(v)
	case ApprovalResponseMessage:
		return h.OnApprovalResponse(v)
	case Unknown:
		return h.OnUnknown(v)
	default:
		// unreachable while Message stays closed
		return fmt.Errorf("message: unhandled variant %T", m)
	}
}

// DispatchAll dispatches each message in order and stops at the first error.
func DispatchAll(msgs []Message, h Handler) error {
	for _, m := range msgs {
		if err := Dispatch(m, h); err != nil {
			return err
		}
	}
	return nil
}
