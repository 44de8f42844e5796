package agent

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// Provider prefixes understood by the server.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ModelHandle names a model as "provider/model".
type ModelHandle string

// DefaultModel is used by NewCreateRequest.
var DefaultModel = OpenAIModel(openai.ChatModelGPT4oMini)

// DefaultEmbedding is the embedding handle used by NewCreateRequest.
const DefaultEmbedding = "openai/text-embedding-3-small"

// OpenAIModel returns the handle of an OpenAI chat model.
func OpenAIModel(m openai.ChatModel) ModelHandle {
	return Handle(ProviderOpenAI, string(m))
}

// AnthropicModel returns the handle of an Anthropic model.
func AnthropicModel(m anthropic.Model) ModelHandle {
	return Handle(ProviderAnthropic, string(m))
}

// Handle joins a provider and a model name.
func Handle(provider, model string) ModelHandle {
	return ModelHandle(provider + "/" + model)
}

// Provider returns the part before the first slash, or "" if there is none.
func (h ModelHandle) Provider() string {
	p, _, ok := strings.Cut(string(h), "/")
	if !ok {
		return ""
	}
	return p
}

// Model returns the part after the first slash. Model names may contain
// slashes themselves.
func (h ModelHandle) Model() string {
	_, m, ok := strings.Cut(string(h), "/")
	if !ok {
		return string(h)
	}
	return m
}

// Valid reports whether both halves of the handle are non-empty.
func (h ModelHandle) Valid() bool {
	return h.Provider() != "" && h.Model() != ""
}

func (h ModelHandle) String() string { return string(h) }
