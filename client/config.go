package client

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvBaseURL = "LETTA_BASE_URL"
	EnvTimeout = "LETTA_TIMEOUT"
	EnvToken   = "LETTA_API_KEY"
)

// Config is the file and environment representation of the client options.
type Config struct {
	BaseURL string            `yaml:"base_url"`
	Timeout time.Duration     `yaml:"timeout"`
	Token   string            `yaml:"token"`
	Headers map[string]string `yaml:"headers"`
}

// LoadConfig reads a YAML config file.
//
//	base_url: http://localhost:8283
//	timeout: 30s
//	headers:
//	  X-Project: demo
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("client: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config data.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Field: "yaml", Value: "", Reason: err.Error()}
	}
	return &cfg, nil
}

// ConfigFromEnv reads LETTA_BASE_URL, LETTA_TIMEOUT and LETTA_API_KEY.
// Unset variables leave the field empty.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL: os.Getenv(EnvBaseURL),
		Token:   os.Getenv(EnvToken),
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, &ConfigError{Field: EnvTimeout, Value: v, Reason: err.Error()}
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// Merge returns a copy of c with every non-empty field of other applied.
func (c Config) Merge(other *Config) Config {
	if other == nil {
		return c
	}
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if len(other.Headers) > 0 {
		merged := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			merged[k] = v
		}
		for k, v := range other.Headers {
			merged[k] = v
		}
		c.Headers = merged
	}
	return c
}

// Builder returns a Builder primed with the config values.
func (c Config) Builder() *Builder {
	b := NewBuilder().BaseURL(c.BaseURL).Timeout(c.Timeout)
	for k, v := range c.Headers {
		b.Header(k, v)
	}
	if c.Token != "" {
		b.Token(c.Token)
	}
	return b
}
