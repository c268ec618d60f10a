package client

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultRequestTimeout bounds each request unless the caller's
	// context imposes a sooner deadline.
	DefaultRequestTimeout = time.Hour

	// DefaultMaxQueuedEvents is the capacity of the engine's internal
	// deadline doorbell and cancellation queues.
	DefaultMaxQueuedEvents = 256
)

// Config carries engine-wide settings.
type Config struct {
	// RequestTimeout is the default per-request timeout applied by
	// proxies that do not override it. Zero means DefaultRequestTimeout;
	// negative disables the engine-imposed timeout entirely.
	RequestTimeout time.Duration

	// MaxQueuedEvents sets the capacity of the internal doorbell and
	// cancellation queues. Zero means DefaultMaxQueuedEvents.
	MaxQueuedEvents int

	// Logger receives engine diagnostics. Nil means slog.Default.
	Logger *slog.Logger

	// Tracer produces per-call spans. Nil means the global otel tracer.
	Tracer trace.Tracer

	// Registerer receives the engine's metrics. Nil disables metric
	// registration (collectors still count, but are not exported).
	Registerer prometheus.Registerer
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.RequestTimeout == 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	if out.MaxQueuedEvents <= 0 {
		out.MaxQueuedEvents = DefaultMaxQueuedEvents
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Tracer == nil {
		out.Tracer = otel.Tracer(tracerName)
	}
	return out
}

// Option configures an Engine.
type Option func(*Config)

// WithRequestTimeout sets the default per-request timeout. Negative
// disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithMaxQueuedEvents sets the internal queue capacity.
func WithMaxQueuedEvents(n int) Option {
	return func(c *Config) { c.MaxQueuedEvents = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTracer sets the tracer used for per-call spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) { c.Tracer = t }
}

// WithRegisterer registers the engine's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) { c.Registerer = reg }
}

// CallOptions carry per-proxy settings.
type CallOptions struct {
	// RequestTimeout overrides the engine default for this proxy.
	// Zero keeps the engine default; negative disables the timeout.
	RequestTimeout time.Duration
}
