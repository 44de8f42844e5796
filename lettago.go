// Package lettago provides a high-level façade over the client, envelope and
// message packages for talking to agents of a Letta server. Most applications
// interact with this package by:
//  1. Creating a Letta via New() (optionally pointing at a YAML config file)
//  2. Sending text to an agent with Send, or an approval reply with Approve
//  3. Handling the typed reply messages, e.g. with SendAndDispatch
//
// Configuration is layered: built-in defaults, then the optional config file,
// then LETTA_* environment variables, then explicit options. Lower level
// control (streaming, listing history, agent management) is available through
// Client().
package lettago

import (
	"context"

	"github.com/hupe1980/lettago/client"
	"github.com/hupe1980/lettago/envelope"
	"github.com/hupe1980/lettago/identifier"
	"github.com/hupe1980/lettago/logging"
	"github.com/hupe1980/lettago/message"
)

// DefaultBaseURL is the address of a local server.
const DefaultBaseURL = "http://localhost:8283"

// Options configures the Letta instance.
type Options struct {
	// BaseURL overrides every other source when set.
	BaseURL string

	// ConfigFile is an optional YAML file read by client.LoadConfig.
	ConfigFile string

	// SkipEnv disables reading LETTA_* environment variables.
	SkipEnv bool

	// ClientOptions are applied last to the underlying client options.
	ClientOptions []func(o *client.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Letta is the high-level façade around a client.Client.
type Letta struct {
	client *client.Client
	logger logging.Logger
}

// New creates a new Letta instance.
func New(optFns ...func(o *Options)) (*Letta, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := client.Config{BaseURL: DefaultBaseURL, Timeout: client.DefaultTimeout}
	if opts.ConfigFile != "" {
		fileCfg, err := client.LoadConfig(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	if !opts.SkipEnv {
		envCfg, err := client.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(envCfg)
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	clientOpts, err := cfg.Builder().Logger(opts.Logger).Options()
	if err != nil {
		return nil, err
	}

	c, err := client.New(clientOpts.BaseURL, func(o *client.Options) {
		*o = clientOpts
		for _, fn := range opts.ClientOptions {
			fn(o)
		}
	})
	if err != nil {
		return nil, err
	}

	return &Letta{client: c, logger: opts.Logger}, nil
}

// Client returns the underlying client.
func (l *Letta) Client() *client.Client { return l.client }

// Send delivers user text to an agent and returns its reply.
func (l *Letta) Send(ctx context.Context, agentID identifier.Identifier, text string, optFns ...func(o *envelope.Options)) (*envelope.Response, error) {
	return l.send(ctx, agentID, []message.Input{message.User(text)}, optFns...)
}

// Approve answers a pending approval request or returns client side tool
// results to the agent.
func (l *Letta) Approve(ctx context.Context, agentID identifier.Identifier, returns ...message.ApprovalReturn) (*envelope.Response, error) {
	return l.send(ctx, agentID, []message.Input{message.Approval(returns...)})
}

// SendAndDispatch sends text and routes each reply message to h in order.
// The response is returned even when a handler fails.
func (l *Letta) SendAndDispatch(ctx context.Context, agentID identifier.Identifier, text string, h message.Handler) (*envelope.Response, error) {
	resp, err := l.Send(ctx, agentID, text)
	if err != nil {
		return nil, err
	}
	return resp, message.DispatchAll(resp.Messages, h)
}

func (l *Letta) send(ctx context.Context, agentID identifier.Identifier, msgs []message.Input, optFns ...func(o *envelope.Options)) (*envelope.Response, error) {
	req, err := envelope.BuildRequest(msgs, optFns...)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.CreateMessages(ctx, agentID, req)
	if err != nil {
		return nil, err
	}
	if resp.StopReason != nil {
		l.logger.Debug("agent stopped", "agent_id", agentID.String(), "stop_reason", resp.StopReason.Reason, "messages", len(resp.Messages))
	}
	return resp, nil
}
