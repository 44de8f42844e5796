package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hupe1980/lettago/logging"
)

// DefaultTimeout bounds every call unless overridden.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "lettago"

// ErrInvalidConfig is wrapped by every configuration failure.
var ErrInvalidConfig = errors.New("client: invalid config")

// ConfigError reports a rejected configuration value.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// HTTPDoer performs HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:8283".
	BaseURL string
	// Timeout bounds each call, including reading the full body. Zero means
	// DefaultTimeout.
	Timeout time.Duration
	// HTTPClient performs the requests. Defaults to a plain *http.Client.
	HTTPClient HTTPDoer
	// Headers are added to every request, e.g. authorization.
	Headers   map[string]string
	UserAgent string
	Logger    logging.Logger
}

func (o *Options) validate() (*url.URL, error) {
	u, err := parseBaseURL(o.BaseURL)
	if err != nil {
		return nil, err
	}
	if o.Timeout < 0 {
		return nil, &ConfigError{Field: "timeout", Value: o.Timeout.String(), Reason: "must not be negative"}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	return u, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, &ConfigError{Field: "base_url", Value: raw, Reason: "must not be empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ConfigError{Field: "base_url", Value: raw, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigError{Field: "base_url", Value: raw, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &ConfigError{Field: "base_url", Value: raw, Reason: "missing host"}
	}
	return u, nil
}

// Builder assembles Options step by step. Setters never fail; the first
// invalid value is remembered and reported by Build.
type Builder struct {
	opts Options
	err  error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{opts: Options{Headers: map[string]string{}}}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// BaseURL sets the server root.
func (b *Builder) BaseURL(raw string) *Builder {
	if _, err := parseBaseURL(raw); err != nil {
		b.fail(err)
	}
	b.opts.BaseURL = raw
	return b
}

// Timeout sets the per-call timeout.
func (b *Builder) Timeout(d time.Duration) *Builder {
	if d < 0 {
		b.fail(&ConfigError{Field: "timeout", Value: d.String(), Reason: "must not be negative"})
	}
	b.opts.Timeout = d
	return b
}

// HTTPClient sets the transport.
func (b *Builder) HTTPClient(c HTTPDoer) *Builder {
	b.opts.HTTPClient = c
	return b
}

// Header adds a header sent with every request.
func (b *Builder) Header(key, value string) *Builder {
	if key == "" {
		b.fail(&ConfigError{Field: "header", Value: key, Reason: "empty header name"})
		return b
	}
	b.opts.Headers[key] = value
	return b
}

// Token sets a bearer token.
func (b *Builder) Token(token string) *Builder {
	return b.Header("Authorization", "Bearer "+token)
}

// UserAgent sets the User-Agent header.
func (b *Builder) UserAgent(ua string) *Builder {
	b.opts.UserAgent = ua
	return b
}

// Logger sets the logger.
func (b *Builder) Logger(l logging.Logger) *Builder {
	b.opts.Logger = l
	return b
}

// Options returns the options collected so far.
func (b *Builder) Options() (Options, error) {
	return b.opts, b.err
}

// Build validates the collected options and creates the client.
func (b *Builder) Build() (*Client, error) {
	if b.err != nil {
		return nil, b.err
	}
	return newClient(b.opts)
}
