package message

import (
	"bytes"
	"encoding/json"
	"errors"
)

var null = []byte("null")

// Payload is an opaque JSON value whose schema is owned by a tool. It keeps the
// exact bytes it was decoded from and re-encodes them unchanged.
type Payload []byte

// NewPayload encodes v as a Payload.
func NewPayload(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Payload(b), nil
}

// MarshalJSON returns the retained bytes. An empty payload encodes as null.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return null, nil
	}
	return p, nil
}

// UnmarshalJSON retains a copy of data.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return errors.New("message.Payload: UnmarshalJSON on nil pointer")
	}
	*p = append((*p)[0:0], data...)
	return nil
}

// Bytes returns the raw JSON bytes.
func (p Payload) Bytes() []byte { return p }

// IsNull reports whether the payload is absent or JSON null.
func (p Payload) IsNull() bool {
	return len(p) == 0 || bytes.Equal(bytes.TrimSpace(p), null)
}

// Text returns the payload as text: the unquoted value for a JSON string,
// the raw JSON otherwise.
func (p Payload) Text() string {
	if s, ok := p.str(); ok {
		return s
	}
	if p.IsNull() {
		return ""
	}
	return string(p)
}

// Decode unmarshals the payload into v. Tool arguments are frequently sent as
// a JSON document encoded inside a JSON string; such strings are unwrapped
// first unless v is a *string.
func (p Payload) Decode(v any) error {
	if p.IsNull() {
		return nil
	}
	if _, wantString := v.(*string); !wantString {
		if s, ok := p.str(); ok {
			return json.Unmarshal([]byte(s), v)
		}
	}
	return json.Unmarshal(p, v)
}

func (p Payload) str() (string, bool) {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
