// Package client is the HTTP facade of the agent messaging API.
//
// A Client is configured once, through New with functional options, through
// the staged Builder, or from a YAML file or the environment via Config, and
// is then shared freely between goroutines:
//
//	c, err := client.NewBuilder().
//		BaseURL("http://localhost:8283").
//		Timeout(30 * time.Second).
//		Build()
//	if err != nil {
//		return err
//	}
//	req, _ := envelope.BuildRequest([]message.Input{message.User("hello")})
//	resp, err := c.CreateMessages(ctx, agentID, req)
//
// Every call is made exactly once and is bounded by the configured timeout.
// Failures after the request is built are *Error values; use errors.Is with
// ErrTransport, ErrRejected, ErrDecode or ErrTimeout to classify them.
// Individual messages the client does not recognize never fail a call: they
// are returned as message.Unknown and logged at warn level.
package client
