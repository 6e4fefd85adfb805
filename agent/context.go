package agent

import "context"

// MessageContext carries per-envelope routing metadata into a handler. It
// embeds the dispatch context.Context, so it can be passed anywhere a plain
// context is expected.
type MessageContext struct {
	context.Context

	// Self is the identity of the instance handling the message.
	Self AgentID

	// Sender identifies the agent that sent the message, or nil when the
	// message entered the runtime from outside.
	Sender *AgentID

	// Topic is set when the message arrived through a publish; nil for
	// direct sends.
	Topic *TopicID

	// Token is the cancellation token threaded through this request chain.
	// Handlers poll it at their own suspension points to honor cancellation
	// early.
	Token *CancelToken

	rt Runtime
}

// NewMessageContext assembles a MessageContext. It is exported for the
// runtime and for tests that invoke handlers directly.
func NewMessageContext(ctx context.Context, rt Runtime, self AgentID, sender *AgentID, topic *TopicID, token *CancelToken) *MessageContext {
	return &MessageContext{
		Context: ctx,
		Self:    self,
		Sender:  sender,
		Topic:   topic,
		Token:   token,
		rt:      rt,
	}
}

// Send dispatches a nested request to another agent, threading this
// envelope's cancellation token and naming Self as the sender. Work enqueued
// this way is observed by StopWhenIdle.
func (c *MessageContext) Send(msg *Message, to AgentID) (*Future, error) {
	return c.rt.Send(c.Context, msg, to, WithCancelToken(c.Token), withSender(c.Self))
}

// Publish broadcasts a nested message on a topic, threading this envelope's
// cancellation token and naming Self as the sender.
func (c *MessageContext) Publish(msg *Message, topic TopicID) error {
	return c.rt.Publish(c.Context, msg, topic, WithCancelToken(c.Token), withSender(c.Self))
}
