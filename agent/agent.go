package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lettago/identifier"
)

// ErrInvalidRequest is wrapped by CreateRequest.Validate failures.
var ErrInvalidRequest = errors.New("agent: invalid create request")

// Agent types accepted by the server.
const (
	TypeMemGPT      = "memgpt_agent"
	TypeMemGPTV2    = "memgpt_v2_agent"
	TypeLettaV1     = "letta_v1_agent"
	TypeReactAgent  = "react_agent"
	TypeWorkflow    = "workflow_agent"
	TypeSleeptime   = "sleeptime_agent"
	TypeVoiceConvo  = "voice_convo_agent"
	TypeSplitThread = "split_thread_agent"
)

// MemoryBlock is a labelled section of an agent's core memory.
type MemoryBlock struct {
	ID          identifier.Identifier `json:"id,omitzero"`
	Label       string                `json:"label"`
	Value       string                `json:"value"`
	Limit       int                   `json:"limit,omitempty"`
	Description string                `json:"description,omitempty"`
	ReadOnly    bool                  `json:"read_only,omitempty"`
}

// CreateRequest is the body of an agent creation call.
type CreateRequest struct {
	Name               string        `json:"name,omitempty"`
	AgentType          string        `json:"agent_type,omitempty"`
	Description        string        `json:"description,omitempty"`
	System             string        `json:"system,omitempty"`
	Model              ModelHandle   `json:"model"`
	Embedding          string        `json:"embedding,omitempty"`
	MemoryBlocks       []MemoryBlock `json:"memory_blocks,omitempty"`
	ToolIDs            []string      `json:"tool_ids,omitempty"`
	Tags               []string      `json:"tags,omitempty"`
	IncludeBaseTools   *bool         `json:"include_base_tools,omitempty"`
	ContextWindowLimit int           `json:"context_window_limit,omitempty"`
}

// NewCreateRequest returns a request using DefaultModel and DefaultEmbedding.
func NewCreateRequest(name string, optFns ...func(r *CreateRequest)) CreateRequest {
	r := CreateRequest{
		Name:      name,
		Model:     DefaultModel,
		Embedding: DefaultEmbedding,
	}
	for _, fn := range optFns {
		fn(&r)
	}
	return r
}

// Validate checks the request before it is sent.
func (r CreateRequest) Validate() error {
	if !r.Model.Valid() {
		return fmt.Errorf("%w: model %q is not a provider/model handle", ErrInvalidRequest, r.Model)
	}
	if r.ContextWindowLimit < 0 {
		return fmt.Errorf("%w: negative context window limit", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(r.MemoryBlocks))
	for i, b := range r.MemoryBlocks {
		if b.Label == "" {
			return fmt.Errorf("%w: memory block %d has no label", ErrInvalidRequest, i)
		}
		if _, dup := seen[b.Label]; dup {
			return fmt.Errorf("%w: duplicate memory block label %q", ErrInvalidRequest, b.Label)
		}
		seen[b.Label] = struct{}{}
	}
	return nil
}

// Memory is the core memory of an agent.
type Memory struct {
	Blocks []MemoryBlock `json:"blocks"`
}

// Block returns the block with the given label.
func (m Memory) Block(label string) (MemoryBlock, bool) {
	for _, b := range m.Blocks {
		if b.Label == label {
			return b, true
		}
	}
	return MemoryBlock{}, false
}

// State is the server side representation of an agent. Fields the client
// does not model are ignored.
type State struct {
	ID          identifier.Identifier `json:"id"`
	Name        string                `json:"name"`
	AgentType   string                `json:"agent_type,omitempty"`
	Description string                `json:"description,omitempty"`
	System      string                `json:"system,omitempty"`
	Model       ModelHandle           `json:"model,omitempty"`
	Embedding   string                `json:"embedding,omitempty"`
	Memory      Memory                `json:"memory"`
	Tags        []string              `json:"tags,omitempty"`
	CreatedAt   time.Time             `json:"created_at,omitzero"`
	UpdatedAt   time.Time             `json:"updated_at,omitzero"`
}
