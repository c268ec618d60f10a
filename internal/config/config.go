package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "strand.json"

	// DefaultAddr is the default peer address.
	DefaultAddr = "localhost:7420"

	// DefaultTransport is the default transport kind.
	DefaultTransport = "tcp"

	// DefaultRequestTimeout is the default per-request timeout.
	DefaultRequestTimeout = "1h"

	// DefaultMaxQueuedEvents is the default internal queue capacity.
	DefaultMaxQueuedEvents = 256

	// DefaultMetricsAddr is a conventional metrics listen address. Load
	// does not apply it: MetricsAddr stays empty, and the endpoint
	// disabled, unless it is configured.
	DefaultMetricsAddr = "localhost:9420"
)

// Config represents the complete strand.json configuration.
type Config struct {
	// Addr is the peer address: host:port for tcp, a filesystem path for
	// unix, a ws:// or wss:// URL for websocket.
	Addr string `json:"addr,omitempty"`

	// Transport selects the connector kind: "tcp", "unix" or "websocket".
	Transport string `json:"transport,omitempty"`

	// RequestTimeout is the default per-request timeout as a Go duration
	// string (e.g. "30s"). "none" disables it.
	RequestTimeout string `json:"requestTimeout,omitempty"`

	// MaxQueuedEvents is the capacity of the engine's internal doorbell
	// and cancellation queues.
	MaxQueuedEvents int `json:"maxQueuedEvents,omitempty"`

	// MetricsAddr is the listen address for the metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// Load reads the configuration file at path, falling back to defaults
// when the file does not exist. Environment variables override file
// values: STRAND_ADDR, STRAND_TRANSPORT, STRAND_REQUEST_TIMEOUT,
// STRAND_METRICS_ADDR.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STRAND_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("STRAND_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("STRAND_REQUEST_TIMEOUT"); v != "" {
		c.RequestTimeout = v
	}
	if v := os.Getenv("STRAND_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxQueuedEvents <= 0 {
		c.MaxQueuedEvents = DefaultMaxQueuedEvents
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Transport {
	case "tcp", "unix", "websocket":
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	if _, err := c.ParseRequestTimeout(); err != nil {
		return err
	}
	return nil
}

// ParseRequestTimeout resolves the request timeout setting. A negative
// result means the timeout is disabled.
func (c *Config) ParseRequestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "none" {
		return -1, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: bad requestTimeout %q: %w", c.RequestTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: requestTimeout %q must be positive", c.RequestTimeout)
	}
	return d, nil
}
