package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DiscriminantField is the JSON field that selects the variant.
const DiscriminantField = "message_type"

// Reasons attached to Unknown.Err.
var (
	ErrMalformed           = errors.New("payload is not a JSON object")
	ErrMissingDiscriminant = errors.New("missing message_type")
	ErrUnknownDiscriminant = errors.New("unrecognized message_type")
	ErrShapeMismatch       = errors.New("payload does not match its message_type")
)

type decoderFunc func(raw []byte, obj gjson.Result, meta Metadata) (Message, error)

var decoders = map[Type]decoderFunc{
	TypeSystem:           decodeSystem,
	TypeUser:             decodeUser,
	TypeReasoning:        decodeReasoning,
	TypeHiddenReasoning:  decodeHiddenReasoning,
	TypeAssistant:        decodeAssistant,
	TypeToolCall:         decodeToolCall,
	TypeToolReturn:       decodeToolReturn,
	TypeApprovalRequest:  decodeApprovalRequest,
	TypeApprovalResponse: decodeApprovalResponse,
}

// Decode maps a raw payload onto its variant. It never fails: payloads that
// cannot be decoded as a known variant are returned as Unknown with the raw
// bytes preserved. position is recorded in the message metadata.
func Decode(raw []byte, position int) Message {
	raw = bytes.Clone(raw)
	if !gjson.ValidBytes(raw) {
		return unknown(raw, "", position, ErrMalformed)
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return unknown(raw, "", position, ErrMalformed)
	}
	disc := obj.Get(DiscriminantField)
	if !disc.Exists() || disc.Type == gjson.Null {
		return unknown(raw, "", position, ErrMissingDiscriminant)
	}
	if disc.Type != gjson.String {
		return unknown(raw, "", position, fmt.Errorf("%w: %s is not a string", ErrMissingDiscriminant, disc.Raw))
	}
	t := Type(disc.Str)
	if key, dup := duplicateKey(obj); dup {
		return unknown(raw, t, position, fmt.Errorf("%w: duplicate key %q", ErrShapeMismatch, key))
	}
	dec, ok := decoders[t]
	if !ok {
		return unknown(raw, t, position, fmt.Errorf("%w: %q", ErrUnknownDiscriminant, t))
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return unknown(raw, t, position, fmt.Errorf("%w: metadata: %v", ErrShapeMismatch, err))
	}
	meta.Position = position
	m, err := dec(raw, obj, meta)
	if err != nil {
		return unknown(raw, t, position, fmt.Errorf("%w: %v", ErrShapeMismatch, err))
	}
	return m
}

// unknown builds the catch-all variant, keeping whatever metadata can be read.
func unknown(raw []byte, t Type, position int, reason error) Unknown {
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		meta = Metadata{}
	}
	meta.Position = position
	return Unknown{Metadata: meta, Discriminant: t, Raw: raw, Err: reason}
}

// duplicateKey reports the first key that appears twice in obj or in one of
// its tool call objects. gjson reads the first occurrence and encoding/json
// the last, so such payloads could decode inconsistently.
func duplicateKey(obj gjson.Result) (string, bool) {
	if key, dup := duplicateIn(obj); dup {
		return key, true
	}
	if key, dup := duplicateIn(obj.Get("tool_call")); dup {
		return "tool_call." + key, true
	}
	calls := obj.Get("tool_calls")
	if calls.IsObject() {
		if key, dup := duplicateIn(calls); dup {
			return "tool_calls." + key, true
		}
	}
	if calls.IsArray() {
		for i, c := range calls.Array() {
			if key, dup := duplicateIn(c); dup {
				return fmt.Sprintf("tool_calls.%d.%s", i, key), true
			}
		}
	}
	return "", false
}

func duplicateIn(obj gjson.Result) (string, bool) {
	if !obj.IsObject() {
		return "", false
	}
	seen := make(map[string]struct{})
	var (
		dup   string
		found bool
	)
	obj.ForEach(func(key, _ gjson.Result) bool {
		k := key.String()
		if _, ok := seen[k]; ok {
			dup, found = k, true
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	return dup, found
}

func requireFields(obj gjson.Result, fields ...string) error {
	for _, f := range fields {
		if v := obj.Get(f); !v.Exists() || v.Type == gjson.Null {
			return fmt.Errorf("missing required field %q", f)
		}
	}
	return nil
}

func requireOneOf(obj gjson.Result, fields ...string) error {
	for _, f := range fields {
		if v := obj.Get(f); v.Exists() && v.Type != gjson.Null {
			return nil
		}
	}
	return fmt.Errorf("missing one of %s", strings.Join(fields, ", "))
}

// decodeText accepts a plain string or a list of text content parts.
func decodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var parts []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", errors.New("content is neither a string nor a list of text parts")
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type != "text" || p.Text == nil {
			return "", fmt.Errorf("unsupported content part %q", p.Type)
		}
		b.WriteString(*p.Text)
	}
	return b.String(), nil
}

func decodeContent(raw []byte, obj gjson.Result) (string, error) {
	if err := requireFields(obj, "content"); err != nil {
		return "", err
	}
	var w struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return "", err
	}
	return decodeText(w.Content)
}

func decodeSystem(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	content, err := decodeContent(raw, obj)
	if err != nil {
		return nil, err
	}
	return SystemMessage{Metadata: meta, Content: content}, nil
}

func decodeUser(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	content, err := decodeContent(raw, obj)
	if err != nil {
		return nil, err
	}
	return UserMessage{Metadata: meta, Content: content}, nil
}

func decodeAssistant(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	content, err := decodeContent(raw, obj)
	if err != nil {
		return nil, err
	}
	return AssistantMessage{Metadata: meta, Content: content}, nil
}

func decodeReasoning(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	if err := requireFields(obj, "reasoning"); err != nil {
		return nil, err
	}
	var w struct {
		Reasoning string `json:"reasoning"`
		Source    string `json:"source"`
		Signature string `json:"signature"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return ReasoningMessage{Metadata: meta, Reasoning: w.Reasoning, Source: w.Source, Signature: w.Signature}, nil
}

func decodeHiddenReasoning(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	if err := requireFields(obj, "state"); err != nil {
		return nil, err
	}
	var w struct {
		State           string `json:"state"`
		HiddenReasoning string `json:"hidden_reasoning"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return HiddenReasoningMessage{Metadata: meta, State: w.State, HiddenReasoning: w.HiddenReasoning}, nil
}

// decodeToolCalls reads "tool_call" and "tool_calls". The latter is either a
// list or, for streamed deltas, a single object.
func decodeToolCalls(obj gjson.Result) (ToolCall, []ToolCall, error) {
	if err := requireOneOf(obj, "tool_call", "tool_calls"); err != nil {
		return ToolCall{}, nil, err
	}
	var call ToolCall
	if v := obj.Get("tool_call"); v.Exists() && v.Type != gjson.Null {
		if !v.IsObject() {
			return ToolCall{}, nil, errors.New("tool_call is not an object")
		}
		if err := json.Unmarshal([]byte(v.Raw), &call); err != nil {
			return ToolCall{}, nil, fmt.Errorf("tool_call: %w", err)
		}
	}
	var calls []ToolCall
	if v := obj.Get("tool_calls"); v.Exists() && v.Type != gjson.Null {
		switch {
		case v.IsArray():
			if err := json.Unmarshal([]byte(v.Raw), &calls); err != nil {
				return ToolCall{}, nil, fmt.Errorf("tool_calls: %w", err)
			}
		case v.IsObject():
			var single ToolCall
			if err := json.Unmarshal([]byte(v.Raw), &single); err != nil {
				return ToolCall{}, nil, fmt.Errorf("tool_calls: %w", err)
			}
			calls = []ToolCall{single}
		default:
			return ToolCall{}, nil, errors.New("tool_calls is neither a list nor an object")
		}
	}
	if call.Name == "" && call.ToolCallID == "" && len(calls) > 0 {
		call = calls[0]
	}
	return call, calls, nil
}

func decodeToolCall(_ []byte, obj gjson.Result, meta Metadata) (Message, error) {
	call, calls, err := decodeToolCalls(obj)
	if err != nil {
		return nil, err
	}
	return ToolCallMessage{Metadata: meta, ToolCall: call, ToolCalls: calls}, nil
}

func decodeApprovalRequest(_ []byte, obj gjson.Result, meta Metadata) (Message, error) {
	call, calls, err := decodeToolCalls(obj)
	if err != nil {
		return nil, err
	}
	return ApprovalRequestMessage{Metadata: meta, ToolCall: call, ToolCalls: calls}, nil
}

func decodeToolReturn(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	if err := requireFields(obj, "tool_return"); err != nil {
		return nil, err
	}
	var w struct {
		ToolReturn Payload  `json:"tool_return"`
		Status     string   `json:"status"`
		ToolCallID string   `json:"tool_call_id"`
		Stdout     []string `json:"stdout"`
		Stderr     []string `json:"stderr"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return ToolReturnMessage{
		Metadata:   meta,
		ToolReturn: w.ToolReturn,
		Status:     w.Status,
		ToolCallID: w.ToolCallID,
		Stdout:     w.Stdout,
		Stderr:     w.Stderr,
	}, nil
}

func decodeApprovalResponse(raw []byte, obj gjson.Result, meta Metadata) (Message, error) {
	if err := requireOneOf(obj, "approve", "approvals"); err != nil {
		return nil, err
	}
	var w struct {
		Approve           *bool   `json:"approve"`
		ApprovalRequestID string  `json:"approval_request_id"`
		Reason            string  `json:"reason"`
		Approvals         Payload `json:"approvals"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return ApprovalResponseMessage{
		Metadata:          meta,
		Approve:           w.Approve,
		ApprovalRequestID: w.ApprovalRequestID,
		Reason:            w.Reason,
		Approvals:         w.Approvals,
	}, nil
}
