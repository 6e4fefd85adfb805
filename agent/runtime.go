package agent

import "context"

// RuntimeState names the scheduler lifecycle states.
type RuntimeState string

const (
	StateCreated  RuntimeState = "created"
	StateRunning  RuntimeState = "running"
	StateDraining RuntimeState = "draining"
	StateStopped  RuntimeState = "stopped"
)

// Registration is the handle returned by Register.
type Registration struct {
	// Type is the registered agent type.
	Type string
}

// Runtime routes messages between agents in a single process. It lazily
// instantiates agents on demand, delivers messages point-to-point (Send) or
// by topic subscription (Publish), and guarantees per-recipient FIFO
// ordering.
type Runtime interface {
	// Register stores a factory and subscription list under agentType.
	// Subscriptions are merged into the subscription index immediately.
	// Fails with ErrDuplicateRegistration if agentType is already registered,
	// in which case the index is left untouched.
	Register(agentType string, factory Factory, subs ...Subscription) (*Registration, error)

	// AddSubscription records an additional topic-to-agent routing rule.
	AddSubscription(sub Subscription) error

	// Send enqueues a message for a single agent instance and returns a
	// future that resolves with the handler's reply. An unknown agent type
	// fails with ErrUnknownAgentType before any mailbox mutation.
	Send(ctx context.Context, msg *Message, to AgentID, opts ...SendOption) (*Future, error)

	// Publish enqueues a message for every subscriber of the topic and
	// returns without awaiting handler completion. A topic with no matching
	// subscription is a silent no-op; a matched subscription naming an
	// unregistered agent type is a hard error.
	Publish(ctx context.Context, msg *Message, topic TopicID, opts ...SendOption) error

	// Start launches the dispatcher.
	Start(ctx context.Context) error

	// Stop shuts down all mailboxes immediately, discarding pending work.
	// Futures attached to discarded envelopes are rejected with
	// ErrQueueShutDown.
	Stop(ctx context.Context) error

	// StopWhenIdle blocks until every mailbox reports zero unfinished items,
	// including work recursively enqueued by handlers while draining, then
	// stops cleanly.
	StopWhenIdle(ctx context.Context) error

	// ProcessNext dispatches one ready envelope, reporting whether one was
	// found. It is the single-step primitive used by batch-style callers and
	// tests; the handler runs asynchronously.
	ProcessNext(ctx context.Context) (bool, error)

	// State reports the scheduler lifecycle state.
	State() RuntimeState

	// Instance returns the cached instance for id, if one has been created.
	Instance(id AgentID) (Agent, bool)
}

// SendOptions carries optional per-call settings for Send and Publish.
type SendOptions struct {
	// Token is the cancellation token for this request chain. When nil the
	// runtime creates a fresh token.
	Token *CancelToken

	// Sender names the sending agent; nil for external callers.
	Sender *AgentID
}

// SendOption configures a single Send or Publish call.
type SendOption func(*SendOptions)

// WithCancelToken threads an existing cancellation token through the call.
func WithCancelToken(token *CancelToken) SendOption {
	return func(o *SendOptions) { o.Token = token }
}

// withSender records the sending agent. Only the runtime sets this, via
// MessageContext.
func withSender(id AgentID) SendOption {
	return func(o *SendOptions) { o.Sender = &id }
}

// ApplySendOptions folds options into a SendOptions, filling in a fresh
// token when none was supplied.
func ApplySendOptions(opts []SendOption) *SendOptions {
	options := &SendOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Token == nil {
		options.Token = NewCancelToken()
	}
	return options
}
