package testutil

import (
	"encoding/json"
)

// EnvelopeBuilder assembles a response body from raw message payloads.
type EnvelopeBuilder struct {
	messages   []json.RawMessage
	stopReason string
	usage      map[string]int
}

// NewEnvelopeBuilder starts an envelope with the given messages.
func NewEnvelopeBuilder(msgs ...[]byte) *EnvelopeBuilder {
	b := &EnvelopeBuilder{messages: []json.RawMessage{}}
	return b.Add(msgs...)
}

// Add appends message payloads (chainable).
func (b *EnvelopeBuilder) Add(msgs ...[]byte) *EnvelopeBuilder {
	for _, m := range msgs {
		b.messages = append(b.messages, json.RawMessage(m))
	}
	return b
}

// StopReason sets the stop reason (chainable).
func (b *EnvelopeBuilder) StopReason(reason string) *EnvelopeBuilder {
	b.stopReason = reason
	return b
}

// Usage sets token usage (chainable).
func (b *EnvelopeBuilder) Usage(prompt, completion, steps int) *EnvelopeBuilder {
	b.usage = map[string]int{
		"prompt_tokens":     prompt,
		"completion_tokens": completion,
		"total_tokens":      prompt + completion,
		"step_count":        steps,
	}
	return b
}

// Build returns the JSON body.
func (b *EnvelopeBuilder) Build() []byte {
	body := map[string]any{"messages": b.messages}
	if b.stopReason != "" {
		body["stop_reason"] = map[string]string{"message_type": "stop_reason", "stop_reason": b.stopReason}
	}
	if b.usage != nil {
		usage := map[string]any{"message_type": "usage_statistics"}
		for k, v := range b.usage {
			usage[k] = v
		}
		body["usage"] = usage
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return raw
}

// Envelope is shorthand for NewEnvelopeBuilder(msgs...).Build().
func Envelope(msgs ...[]byte) []byte { return NewEnvelopeBuilder(msgs...).Build() }
