package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hupe1980/lettago/agent"
	"github.com/hupe1980/lettago/identifier"
)

const agentsPath = "/v1/agents/"

// CreateAgent creates an agent. The request is validated before any I/O.
func (c *Client) CreateAgent(ctx context.Context, req agent.CreateRequest) (*agent.State, error) {
	const op = "create agent"
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("client: %s: %w", op, err)
	}
	body, err := c.do(ctx, op, http.MethodPost, agentsPath, nil, req)
	if err != nil {
		return nil, err
	}
	return decodeState(op, body)
}

// RetrieveAgent returns the current state of an agent.
func (c *Client) RetrieveAgent(ctx context.Context, id identifier.Identifier) (*agent.State, error) {
	const op = "retrieve agent"
	if id.IsZero() {
		return nil, emptyAgentError(op)
	}
	body, err := c.do(ctx, op, http.MethodGet, agentPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeState(op, body)
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, id identifier.Identifier) error {
	const op = "delete agent"
	if id.IsZero() {
		return emptyAgentError(op)
	}
	_, err := c.do(ctx, op, http.MethodDelete, agentPath(id), nil, nil)
	return err
}

func decodeState(op string, body []byte) (*agent.State, error) {
	var s agent.State
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, decodeError(op, err)
	}
	if s.ID.IsZero() {
		return nil, decodeError(op, errors.New("missing agent id"))
	}
	return &s, nil
}
