// Package agent contains the request and state types of the agent resource:
// creating an agent, reading back its state and naming the model it runs on.
//
// Model handles use the server's "provider/model" form. Helpers build them
// from the model enums of the OpenAI and Anthropic SDKs so callers get
// compile-time checked names:
//
//	req := agent.CreateRequest{
//		Name:  "support",
//		Model: agent.AnthropicModel(anthropic.ModelClaude3_5Sonnet20241022),
//		MemoryBlocks: []agent.MemoryBlock{
//			{Label: "human", Value: "The user's name is Sam."},
//		},
//	}
//
// The package performs no I/O; the client package sends these types.
package agent
