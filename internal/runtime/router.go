package runtime

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentbus-dev/agentbus/agent"
	"github.com/agentbus-dev/agentbus/internal/observability"
	obs "github.com/agentbus-dev/agentbus/pkg/observability"
)

// Send enqueues a message for a single agent instance and returns a future
// that resolves with the handler's reply, rejects with the handler's error,
// or is cancelled when the token fires before dispatch. An unknown agent
// type fails with ErrUnknownAgentType before any mailbox mutation.
func (r *Runtime) Send(ctx context.Context, msg *agent.Message, to agent.AgentID, opts ...agent.SendOption) (*agent.Future, error) {
	options := agent.ApplySendOptions(opts)

	inst, err := r.registry.GetOrCreate(to)
	if err != nil {
		return nil, err
	}
	if err := r.waitIngress(ctx); err != nil {
		return nil, err
	}

	fut := agent.NewFuture()
	if options.Token.Cancelled() {
		fut.Cancel()
		return fut, nil
	}

	env := &envelope{
		msg:       msg,
		sender:    options.Sender,
		recipient: to,
		token:     options.Token,
		reply:     fut,
	}
	if err := inst.mailbox.Put(ctx, env); err != nil {
		return nil, fmt.Errorf("send to %s: %w", to, err)
	}

	if r.config.EnableMetrics {
		obs.RecordMessageSent(to.Type)
	}
	return fut, nil
}

// Publish enqueues a message for every subscriber of the topic and returns
// without awaiting handler completion. Fan-out across subscribers is
// unordered; delivery to each recipient is FIFO. A topic with no matching
// subscription is a silent no-op. A matched subscription naming an
// unregistered agent type is a routing misconfiguration and fails before any
// envelope is enqueued.
func (r *Runtime) Publish(ctx context.Context, msg *agent.Message, topic agent.TopicID, opts ...agent.SendOption) error {
	options := agent.ApplySendOptions(opts)

	recipients := r.subs.Resolve(topic)
	if len(recipients) == 0 {
		if r.config.EnableMetrics {
			obs.RecordPublishDropped(topic.Type)
		}
		return nil
	}

	instances := make([]*instance, 0, len(recipients))
	for _, id := range recipients {
		inst, err := r.registry.GetOrCreate(id)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
		instances = append(instances, inst)
	}

	if err := r.waitIngress(ctx); err != nil {
		return err
	}

	for _, inst := range instances {
		topicCopy := topic
		env := &envelope{
			msg:       msg,
			sender:    options.Sender,
			recipient: inst.id,
			topic:     &topicCopy,
			token:     options.Token,
		}
		if err := inst.mailbox.Put(ctx, env); err != nil {
			return fmt.Errorf("publish to %s: %w", inst.id, err)
		}
	}

	if r.config.EnableMetrics {
		obs.RecordMessagePublished(topic.Type, len(instances))
	}
	return nil
}

// dispatchEnvelope runs one envelope's handler. A token cancelled before
// dispatch skips the handler and cancels the reply future. Handler errors
// are isolated per envelope: they reject the sender's future on sends, and
// are logged and counted on publishes, which have no reply channel.
func (r *Runtime) dispatchEnvelope(ctx context.Context, inst *instance, env *envelope) {
	if env.token != nil && env.token.Cancelled() {
		if env.reply != nil {
			env.reply.Cancel()
		}
		return
	}

	if r.config.EnableTracing {
		var span trace.Span
		ctx, span = observability.StartSpanWithOtel(ctx, "runtime.dispatch."+inst.id.Type,
			trace.WithAttributes(
				attribute.String("agent.type", inst.id.Type),
				attribute.String("agent.key", inst.id.Key),
				attribute.String("message.type", env.msg.Type),
			),
		)
		defer span.End()
	}

	mctx := agent.NewMessageContext(ctx, r, inst.id, env.sender, env.topic, env.token)

	start := time.Now()
	reply, err := invokeHandler(inst.impl, mctx, env.msg)

	if r.config.EnableMetrics {
		obs.RecordHandlerExecution(inst.id.Type, time.Since(start))
		if err != nil {
			obs.RecordHandlerError(inst.id.Type)
		}
	}

	if env.reply != nil {
		if err != nil {
			env.reply.Reject(err)
		} else {
			env.reply.Resolve(reply)
		}
		return
	}
	if err != nil {
		log.Printf("[Runtime] handler error: agent=%s message=%s err=%v", inst.id, env.msg.Type, err)
	}
}

// invokeHandler isolates handler panics so one failing handler cannot crash
// the scheduler or block other mailboxes.
func invokeHandler(a agent.Agent, ctx *agent.MessageContext, msg *agent.Message) (reply *agent.Message, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return a.OnMessage(ctx, msg)
}
