package envelope

import (
	"encoding/json"
	"errors"

	"github.com/hupe1980/lettago/message"
)

// ErrNilMessages is returned by BuildRequest for a nil message slice.
var ErrNilMessages = errors.New("envelope: messages must not be nil")

// Options holds the optional behavioral flags of a request. Zero values are
// omitted from the wire so the server applies its own defaults.
type Options struct {
	// MaxSteps bounds the number of agent steps for this request.
	MaxSteps int `json:"max_steps,omitempty"`
	// StreamTokens asks a streaming endpoint for token level chunks.
	StreamTokens bool `json:"stream_tokens,omitempty"`
	// IncludePings asks a streaming endpoint for keep-alive pings.
	IncludePings bool `json:"include_pings,omitempty"`
	// UseAssistantMessage toggles mapping of the send_message tool onto
	// assistant messages.
	UseAssistantMessage       *bool          `json:"use_assistant_message,omitempty"`
	AssistantMessageToolName  string         `json:"assistant_message_tool_name,omitempty"`
	AssistantMessageToolKwarg string         `json:"assistant_message_tool_kwarg,omitempty"`
	IncludeReturnMessageTypes []message.Type `json:"include_return_message_types,omitempty"`
	// EnableThinking is forwarded as-is; the server interprets it.
	EnableThinking string `json:"enable_thinking,omitempty"`
}

// DefaultOptions leaves every flag to the server.
var DefaultOptions = Options{}

// Request is the body of a message-creation call. Build a fresh Request per
// call.
type Request struct {
	Messages []message.Input
	Options
}

// BuildRequest assembles a request. An empty (non-nil) slice is a valid no-op
// turn.
func BuildRequest(messages []message.Input, optFns ...func(o *Options)) (*Request, error) {
	if messages == nil {
		return nil, ErrNilMessages
	}
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Request{Messages: messages, Options: opts}, nil
}

// MarshalJSON implements json.Marshaler. "messages" is always present.
func (r Request) MarshalJSON() ([]byte, error) {
	msgs := r.Messages
	if msgs == nil {
		msgs = []message.Input{}
	}
	return json.Marshal(struct {
		Messages []message.Input `json:"messages"`
		Options
	}{msgs, r.Options})
}
