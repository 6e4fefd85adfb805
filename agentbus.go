// Package agentbus is an in-process message bus for multi-agent systems.
// Agents are registered as factories, instantiated lazily on first delivery,
// and exchange messages point-to-point (Send, with a reply future) or through
// topic subscriptions (Publish). Each instance owns a FIFO mailbox; a
// dispatcher drains mailboxes and runs handlers with per-instance
// serialization.
//
// Basic usage:
//
//	bus := agentbus.New()
//	bus.Register("Echo", func(id agentbus.AgentID) (agentbus.Agent, error) {
//		return agentbus.HandlerFunc(func(ctx *agentbus.MessageContext, msg *agentbus.Message) (*agentbus.Message, error) {
//			var text string
//			if err := msg.UnmarshalPayload(&text); err != nil {
//				return nil, err
//			}
//			return agentbus.NewMessage("echo.reply", text), nil
//		}), nil
//	}, agentbus.DefaultSubscription())
//
//	bus.Start(ctx)
//	fut, _ := bus.Send(ctx, agentbus.NewMessage("echo", "hi"), agentbus.NewAgentID("Echo", "default"))
//	reply, _ := fut.Wait(ctx)
//	bus.StopWhenIdle(ctx)
package agentbus

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/agentbus-dev/agentbus/agent"
	"github.com/agentbus-dev/agentbus/internal/runtime"
	"github.com/agentbus-dev/agentbus/pkg/config"
)

// Version is the current agentbus release.
const Version = "0.1.0"

// Core types re-exported from the agent package.
type (
	Agent          = agent.Agent
	AgentID        = agent.AgentID
	TopicID        = agent.TopicID
	Message        = agent.Message
	MessageContext = agent.MessageContext
	Factory        = agent.Factory
	HandlerFunc    = agent.HandlerFunc
	HandlerMux     = agent.HandlerMux
	Subscription   = agent.Subscription
	CancelToken    = agent.CancelToken
	Future         = agent.Future
	Runtime        = agent.Runtime
	Registration   = agent.Registration
	SendOption     = agent.SendOption
)

// Constructors re-exported from the agent package.
var (
	NewAgentID          = agent.NewAgentID
	NewTopicID          = agent.NewTopicID
	NewMessage          = agent.NewMessage
	NewCancelToken      = agent.NewCancelToken
	NewHandlerMux       = agent.NewHandlerMux
	NewTypeSubscription = agent.NewTypeSubscription
	DefaultSubscription = agent.DefaultSubscription
	WithCancelToken     = agent.WithCancelToken
)

// Sentinel errors re-exported from the agent package.
var (
	ErrUnknownAgentType      = agent.ErrUnknownAgentType
	ErrDuplicateRegistration = agent.ErrDuplicateRegistration
	ErrQueueShutDown         = agent.ErrQueueShutDown
	ErrCancelled             = agent.ErrCancelled
	ErrNoHandler             = agent.ErrNoHandler
)

// Option configures the runtime created by New.
type Option = runtime.Option

// Runtime options re-exported from the runtime package.
var (
	WithMailboxCapacity       = runtime.WithMailboxCapacity
	WithMaxConcurrentHandlers = runtime.WithMaxConcurrentHandlers
	WithIngressLimit          = runtime.WithIngressLimit
	WithMetrics               = runtime.WithMetrics
	WithTracing               = runtime.WithTracing
)

// New creates an in-process runtime with the given options.
func New(opts ...Option) Runtime {
	return runtime.New(opts...)
}

// NewFromConfig creates a runtime from a loaded configuration and applies its
// declarative subscription rules.
func NewFromConfig(cfg *config.Config) (Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	opts := []Option{
		WithMailboxCapacity(cfg.Runtime.MailboxCapacity),
		WithMaxConcurrentHandlers(cfg.Runtime.MaxConcurrentHandlers),
		WithMetrics(cfg.Metrics.Enabled),
		WithTracing(cfg.Tracing.Enabled),
	}
	if cfg.Runtime.IngressLimit > 0 {
		burst := cfg.Runtime.IngressBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, WithIngressLimit(rate.Limit(cfg.Runtime.IngressLimit), burst))
	}

	rt := runtime.New(opts...)
	for _, sub := range cfg.Subscriptions {
		if err := rt.AddSubscription(NewTypeSubscription(sub.TopicType, sub.AgentType)); err != nil {
			return nil, fmt.Errorf("subscription %s -> %s: %w", sub.TopicType, sub.AgentType, err)
		}
	}
	return rt, nil
}
