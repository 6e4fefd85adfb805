// Package runtime implements the in-process message bus behind the agentbus
// facade: lazy agent instantiation, subscription matching, message routing,
// per-recipient mailboxes, and the dispatcher that drains them.
package runtime

import "golang.org/x/time/rate"

// Config contains configuration options for creating a runtime
type Config struct {
	// MailboxCapacity bounds each instance's mailbox (0 = unbounded).
	// A bounded mailbox makes Send/Publish callers block once the recipient
	// falls behind; this is the bus's only flow-control mechanism.
	// Default: 0 (unbounded)
	MailboxCapacity int

	// MaxConcurrentHandlers limits handlers executing at once across all
	// instances (0 = unlimited). Per-instance serialization holds regardless.
	// Default: 0 (unlimited)
	MaxConcurrentHandlers int

	// IngressLimit throttles the aggregate rate of Send and Publish calls
	// (events per second, 0 = disabled).
	// Default: 0 (disabled)
	IngressLimit rate.Limit

	// IngressBurst is the burst size for the ingress limiter.
	// Default: 1 (when IngressLimit is set)
	IngressBurst int

	// EnableMetrics enables prometheus message and handler metrics.
	// Default: true
	EnableMetrics bool

	// EnableTracing wraps every handler dispatch in an OpenTelemetry span.
	// Default: false
	EnableTracing bool
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MailboxCapacity:       0,
		MaxConcurrentHandlers: 0,
		EnableMetrics:         true,
	}
}

// Option is a functional option for configuring a runtime
type Option func(*Config)

// WithMailboxCapacity bounds every mailbox created by the runtime
func WithMailboxCapacity(capacity int) Option {
	return func(cfg *Config) {
		cfg.MailboxCapacity = capacity
	}
}

// WithMaxConcurrentHandlers sets the maximum number of concurrently
// executing handlers
func WithMaxConcurrentHandlers(max int) Option {
	return func(cfg *Config) {
		cfg.MaxConcurrentHandlers = max
	}
}

// WithIngressLimit throttles Send/Publish to limit events per second with
// the given burst
func WithIngressLimit(limit rate.Limit, burst int) Option {
	return func(cfg *Config) {
		cfg.IngressLimit = limit
		cfg.IngressBurst = burst
	}
}

// WithMetrics enables or disables metrics collection
func WithMetrics(enabled bool) Option {
	return func(cfg *Config) {
		cfg.EnableMetrics = enabled
	}
}

// WithTracing enables or disables per-dispatch tracing spans
func WithTracing(enabled bool) Option {
	return func(cfg *Config) {
		cfg.EnableTracing = enabled
	}
}
