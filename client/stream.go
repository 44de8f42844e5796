package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/lettago/envelope"
	"github.com/hupe1980/lettago/identifier"
	"github.com/hupe1980/lettago/logging"
	"github.com/hupe1980/lettago/message"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"
)

var doneMarker = []byte("[DONE]")

// StreamMessages sends req to the streaming endpoint. The client timeout
// bounds the whole stream, not only the first byte. The caller must Close the
// returned stream.
func (c *Client) StreamMessages(ctx context.Context, agentID identifier.Identifier, req *envelope.Request) (*Stream, error) {
	const op = "stream messages"
	if err := checkCall(op, agentID, req); err != nil {
		return nil, err
	}
	path := messagesPath(agentID) + "/stream"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, nil, req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: %s: build request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	stopTimer := c.startTimer(op)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		cancel()
		e := transportError(op, callError(ctx, err))
		c.logRequest(http.MethodPost, path, 0, time.Since(start), e)
		return nil, e
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := readBody(resp)
		cancel()
		e := rejectedError(op, resp.StatusCode, resp.Status, body)
		c.logRequest(http.MethodPost, path, resp.StatusCode, time.Since(start), e)
		return nil, e
	}
	c.logRequest(http.MethodPost, path, resp.StatusCode, time.Since(start), nil)

	return &Stream{
		op:        op,
		ctx:       ctx,
		cancel:    cancel,
		body:      resp.Body,
		decoder:   ssestream.NewDecoder(resp),
		logger:    c.logger,
		stopTimer: stopTimer,
	}, nil
}

// Stream iterates over the messages of a streaming reply in the order the
// server sent them. With token streaming enabled several consecutive chunks
// share a message id. A Stream is not safe for concurrent use.
type Stream struct {
	op      string
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.Closer
	decoder ssestream.Decoder
	logger  logging.Logger

	position   int
	current    message.Message
	stopReason *envelope.StopReason
	usage      *envelope.Usage
	err        error
	done       bool
	closed     bool
	stopTimer  func()
}

// Next advances to the next message. It returns false at the end of the
// stream or on error; check Err afterwards.
func (s *Stream) Next() bool {
	if s.done || s.err != nil || s.decoder == nil {
		return false
	}
	for s.decoder.Next() {
		ev := s.decoder.Event()
		data := bytes.TrimSpace(ev.Data)
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, doneMarker) {
			s.finish()
			return false
		}
		if ev.Type == "error" {
			s.fail(streamError(s.op, data))
			return false
		}

		kind := gjson.GetBytes(data, message.DiscriminantField)
		switch message.Type(kind.String()) {
		case message.TypePing:
			continue
		case message.TypeStopReason:
			sr, err := envelope.DecodeStopReason(data)
			if err != nil {
				s.fail(decodeError(s.op, err))
				return false
			}
			s.stopReason = sr
			continue
		case message.TypeUsage:
			u, err := envelope.DecodeUsage(data)
			if err != nil {
				s.fail(decodeError(s.op, err))
				return false
			}
			s.usage = u
			continue
		}
		if !kind.Exists() && gjson.GetBytes(data, "error").Exists() {
			s.fail(streamError(s.op, data))
			return false
		}

		m := message.Decode(data, s.position)
		s.position++
		warnUnknown(s.logger, s.op, m)
		s.current = m
		return true
	}
	if err := s.decoder.Err(); err != nil {
		s.fail(transportError(s.op, callError(s.ctx, err)))
		return false
	}
	s.finish()
	return false
}

// Current returns the message read by the last successful Next.
func (s *Stream) Current() message.Message { return s.current }

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }

// StopReason returns the stop reason chunk, once received.
func (s *Stream) StopReason() *envelope.StopReason { return s.stopReason }

// Usage returns the usage statistics chunk, once received.
func (s *Stream) Usage() *envelope.Usage { return s.usage }

// Close cancels the call and releases the connection. It is safe to call
// more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	s.cancel()
	s.stopTimer()
	switch {
	case s.decoder != nil:
		return s.decoder.Close()
	case s.body != nil:
		return s.body.Close()
	}
	return nil
}

// Collect reads the remaining messages into a Response and closes the stream.
func (s *Stream) Collect() (*envelope.Response, error) {
	defer s.Close()
	msgs := []message.Message{}
	for s.Next() {
		msgs = append(msgs, s.Current())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &envelope.Response{Messages: msgs, StopReason: s.stopReason, Usage: s.usage}, nil
}

func (s *Stream) finish() {
	s.done = true
	s.current = nil
}

func (s *Stream) fail(err *Error) {
	s.err = err
	s.finish()
}

// streamError converts an in-band error event into a rejection.
func streamError(op string, data []byte) *Error {
	e := &Error{Kind: KindRejected, Op: op, Body: data}
	for _, path := range []string{"error.message", "error.detail", "message", "detail"} {
		if r := gjson.GetBytes(data, path); r.Type == gjson.String {
			e.Detail = r.String()
			break
		}
	}
	if e.Detail == "" {
		e.Detail = detail(data)
	}
	if code := gjson.GetBytes(data, "error.status_code"); code.Type == gjson.Number {
		e.StatusCode = int(code.Int())
	}
	return e
}
