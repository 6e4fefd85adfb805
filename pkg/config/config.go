// Package config loads agentbus configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxConfigSize caps config files at 1MB; anything larger is rejected.
const maxConfigSize = 1 << 20

// Config represents the application configuration
type Config struct {
	// Runtime Configuration
	Runtime RuntimeConfig `yaml:"runtime"`

	// Subscriptions declares topic-to-agent routing rules applied at startup.
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`

	// Observability
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// RuntimeConfig holds runtime tunables
type RuntimeConfig struct {
	// MailboxCapacity bounds every mailbox (0 = unbounded)
	MailboxCapacity int `yaml:"mailbox_capacity"`

	// MaxConcurrentHandlers caps handlers executing at once (0 = unlimited)
	MaxConcurrentHandlers int `yaml:"max_concurrent_handlers"`

	// IngressLimit throttles Send/Publish calls per second (0 = disabled)
	IngressLimit float64 `yaml:"ingress_limit"`

	// IngressBurst is the ingress limiter burst size
	IngressBurst int `yaml:"ingress_burst"`
}

// SubscriptionConfig declares one topic-type to agent-type routing rule
type SubscriptionConfig struct {
	TopicType string `yaml:"topic_type"`
	AgentType string `yaml:"agent_type"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig holds tracing settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // otlp, stdout, none
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Metrics: MetricsConfig{Enabled: true, Port: 8080},
		Tracing: TracingConfig{Exporter: "stdout"},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Runtime.MailboxCapacity < 0 {
		return fmt.Errorf("runtime.mailbox_capacity must not be negative")
	}
	if c.Runtime.MaxConcurrentHandlers < 0 {
		return fmt.Errorf("runtime.max_concurrent_handlers must not be negative")
	}
	if c.Runtime.IngressLimit < 0 {
		return fmt.Errorf("runtime.ingress_limit must not be negative")
	}
	for i, sub := range c.Subscriptions {
		if sub.TopicType == "" || sub.AgentType == "" {
			return fmt.Errorf("subscriptions[%d]: topic_type and agent_type are required", i)
		}
	}
	switch c.Tracing.Exporter {
	case "", "otlp", "stdout", "none":
	default:
		return fmt.Errorf("tracing.exporter must be one of otlp, stdout, none")
	}
	return nil
}
