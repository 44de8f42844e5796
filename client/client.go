package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/lettago/envelope"
	"github.com/hupe1980/lettago/identifier"
	"github.com/hupe1980/lettago/logging"
	"github.com/hupe1980/lettago/message"
)

// Client sends messages to agents and decodes their replies. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	timeout   time.Duration
	http      HTTPDoer
	headers   map[string]string
	userAgent string
	logger    logging.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{BaseURL: baseURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return newClient(opts)
}

func newClient(opts Options) (*Client, error) {
	u, err := opts.validate()
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}
	return &Client{
		baseURL:   u,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		headers:   headers,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// CreateMessages sends req to the agent and returns its decoded reply. The
// call is made exactly once. Messages the client cannot classify are kept
// as message.Unknown.
func (c *Client) CreateMessages(ctx context.Context, agentID identifier.Identifier, req *envelope.Request) (*envelope.Response, error) {
	const op = "create messages"
	if err := checkCall(op, agentID, req); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, op, http.MethodPost, messagesPath(agentID), nil, req)
	if err != nil {
		return nil, err
	}
	resp, err := envelope.DecodeResponse(body)
	if err != nil {
		return nil, decodeError(op, err)
	}
	c.warnUnknown(op, resp.Messages)
	for _, skipped := range resp.Skipped {
		c.logger.Warn("response field skipped", "op", op, "error", skipped.Error())
	}
	return resp, nil
}

// ListOptions pages through an agent's message history.
type ListOptions struct {
	Limit  int
	Before identifier.Identifier
	After  identifier.Identifier
	// Order is "asc" or "desc"; empty leaves it to the server.
	Order string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if !o.Before.IsZero() {
		q.Set("before", o.Before.String())
	}
	if !o.After.IsZero() {
		q.Set("after", o.After.String())
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	return q
}

// ListMessages returns stored messages of an agent.
func (c *Client) ListMessages(ctx context.Context, agentID identifier.Identifier, opts ListOptions) ([]message.Message, error) {
	const op = "list messages"
	if agentID.IsZero() {
		return nil, emptyAgentError(op)
	}
	body, err := c.do(ctx, op, http.MethodGet, messagesPath(agentID), opts.values(), nil)
	if err != nil {
		return nil, err
	}
	msgs, err := envelope.DecodeMessages(body)
	if err != nil {
		return nil, decodeError(op, err)
	}
	c.warnUnknown(op, msgs)
	return msgs, nil
}

func checkCall(op string, agentID identifier.Identifier, req *envelope.Request) error {
	if agentID.IsZero() {
		return emptyAgentError(op)
	}
	if req == nil {
		return fmt.Errorf("client: %s: %w", op, envelope.ErrNilMessages)
	}
	return nil
}

func emptyAgentError(op string) error {
	return fmt.Errorf("client: %s: agent id: %w", op, identifier.ErrInvalidFormat)
}

func agentPath(id identifier.Identifier) string {
	return "/v1/agents/" + id.String()
}

func messagesPath(id identifier.Identifier) string {
	return agentPath(id) + "/messages"
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do performs one round trip bounded by the client timeout and returns the
// complete body of a successful response.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return nil, fmt.Errorf("client: %s: build request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		e := transportError(op, callError(ctx, err))
		c.logRequest(method, path, 0, time.Since(start), e)
		return nil, e
	}
	body, err := readBody(resp)
	if err != nil {
		e := transportError(op, callError(ctx, err))
		c.logRequest(method, path, resp.StatusCode, time.Since(start), e)
		return nil, e
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := rejectedError(op, resp.StatusCode, resp.Status, body)
		c.logRequest(method, path, resp.StatusCode, time.Since(start), e)
		return nil, e
	}
	c.logRequest(method, path, resp.StatusCode, time.Since(start), nil)
	return body, nil
}

// readBody reads and closes the response body. A custom HTTPDoer may return a
// response without one.
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// callError attaches the context error when the call was cut short by the
// deadline or by the caller.
func callError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

type requestLogger interface {
	LogRequest(method, path string, status int, dur time.Duration, err error)
}

type timerLogger interface {
	StartTimer(op string) func()
}

// startTimer returns a func that logs the duration of op when called.
func (c *Client) startTimer(op string) func() {
	if tl, ok := c.logger.(timerLogger); ok {
		return tl.StartTimer(op)
	}
	start := time.Now()
	return func() { c.logger.Debug("operation completed", "operation", op, "duration", time.Since(start)) }
}

func (c *Client) logRequest(method, path string, status int, dur time.Duration, err error) {
	if rl, ok := c.logger.(requestLogger); ok {
		rl.LogRequest(method, path, status, dur, err)
		return
	}
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "status", status, "duration", dur, "error", err.Error())
		return
	}
	c.logger.Debug("request completed", "method", method, "path", path, "status", status, "duration", dur)
}

func (c *Client) warnUnknown(op string, msgs []message.Message) {
	for _, m := range msgs {
		warnUnknown(c.logger, op, m)
	}
}

func warnUnknown(logger logging.Logger, op string, m message.Message) {
	u, ok := m.(message.Unknown)
	if !ok {
		return
	}
	reason := ""
	if u.Err != nil {
		reason = u.Err.Error()
	}
	logger.Warn("message kept as unknown", "op", op, "message_type", string(u.Discriminant), "position", u.Position, "reason", reason)
}
