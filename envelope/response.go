package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/lettago/message"
)

// ErrDecode is wrapped by every envelope level decoding failure.
var ErrDecode = errors.New("envelope: decode failed")

// DecodeError reports a structurally invalid response body.
type DecodeError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrDecode, e.Reason)
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Unwrap returns the underlying cause, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// StopReason tells why the agent stopped processing a request, e.g.
// "end_turn", "max_steps" or "requires_approval".
type StopReason struct {
	Reason string `json:"stop_reason"`
}

// Usage reports token consumption for a request.
type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
	StepCount        int `json:"step_count"`
}

// Response is the decoded reply to one request. Messages are in the exact
// order the server sent them.
type Response struct {
	Messages   []message.Message
	StopReason *StopReason
	Usage      *Usage
	// Skipped lists optional fields (stop_reason, usage) that were present
	// but malformed. They are left nil and the messages are still returned.
	Skipped []error
}

// Unknown returns the messages that were kept as message.Unknown.
func (r *Response) Unknown() []message.Unknown {
	var out []message.Unknown
	for _, m := range r.Messages {
		if u, ok := m.(message.Unknown); ok {
			out = append(out, u)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler. Each message is written with its
// own MarshalJSON output, so tool payloads keep their bytes.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"messages":[`)
	for i, m := range r.Messages {
		if i > 0 {
			buf.WriteByte(',')
		}
		if m == nil {
			buf.WriteString("null")
			continue
		}
		b, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	if r.StopReason != nil {
		if err := writeField(&buf, "stop_reason", r.StopReason); err != nil {
			return nil, err
		}
	}
	if r.Usage != nil {
		if err := writeField(&buf, "usage", r.Usage); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.WriteString(`,"` + key + `":`)
	buf.Write(b)
	return nil
}

// DecodeResponse decodes a response body. Only a broken outer structure is
// an error; malformed messages become message.Unknown and malformed optional
// fields are reported in Response.Skipped.
func DecodeResponse(raw []byte) (*Response, error) {
	var outer struct {
		Messages   *[]json.RawMessage `json:"messages"`
		StopReason json.RawMessage    `json:"stop_reason"`
		Usage      json.RawMessage    `json:"usage"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, &DecodeError{Reason: "body is not a response object", Err: err}
	}
	if outer.Messages == nil {
		return nil, &DecodeError{Reason: `missing "messages" array`}
	}
	resp := &Response{Messages: decodeAll(*outer.Messages)}
	if isPresent(outer.StopReason) {
		if sr, err := DecodeStopReason(outer.StopReason); err != nil {
			resp.Skipped = append(resp.Skipped, &DecodeError{Reason: "invalid stop_reason", Err: err})
		} else {
			resp.StopReason = sr
		}
	}
	if isPresent(outer.Usage) {
		if u, err := DecodeUsage(outer.Usage); err != nil {
			resp.Skipped = append(resp.Skipped, &DecodeError{Reason: "invalid usage", Err: err})
		} else {
			resp.Usage = u
		}
	}
	return resp, nil
}

// DecodeMessages decodes a bare JSON array of messages, as returned by list
// endpoints.
func DecodeMessages(raw []byte) ([]message.Message, error) {
	var items *[]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Reason: "body is not a message array", Err: err}
	}
	if items == nil {
		return nil, &DecodeError{Reason: "body is null"}
	}
	return decodeAll(*items), nil
}

func decodeAll(items []json.RawMessage) []message.Message {
	msgs := make([]message.Message, 0, len(items))
	for i, item := range items {
		msgs = append(msgs, message.Decode(item, i))
	}
	return msgs
}

// DecodeStopReason decodes a stop_reason chunk or field. Both the object form
// and a bare string are accepted.
func DecodeStopReason(raw []byte) (*StopReason, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &StopReason{Reason: s}, nil
	}
	var sr StopReason
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// DecodeUsage decodes a usage_statistics chunk or field.
func DecodeUsage(raw []byte) (*Usage, error) {
	var u Usage
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
