package agentbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbus-dev/agentbus"
	"github.com/agentbus-dev/agentbus/pkg/config"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := agentbus.New()
	_, err := bus.Register("Greeter", func(id agentbus.AgentID) (agentbus.Agent, error) {
		return agentbus.NewHandlerMux().
			Handle("greet", func(ctx *agentbus.MessageContext, msg *agentbus.Message) (*agentbus.Message, error) {
				var name string
				if err := msg.UnmarshalPayload(&name); err != nil {
					return nil, err
				}
				return agentbus.NewMessage("greeting", "hello, "+name), nil
			}), nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Start(ctx))

	fut, err := bus.Send(ctx, agentbus.NewMessage("greet", "world"), agentbus.NewAgentID("Greeter", "default"))
	require.NoError(t, err)

	reply, err := fut.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "greeting", reply.Type)

	var greeting string
	require.NoError(t, reply.UnmarshalPayload(&greeting))
	assert.Equal(t, "hello, world", greeting)

	require.NoError(t, bus.StopWhenIdle(ctx))
}

func TestNewFromConfigAppliesSubscriptions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.DefaultConfig()
	cfg.Subscriptions = []config.SubscriptionConfig{
		{TopicType: "orders", AgentType: "Auditor"},
	}

	bus, err := agentbus.NewFromConfig(cfg)
	require.NoError(t, err)

	received := make(chan string, 1)
	_, err = bus.Register("Auditor", func(id agentbus.AgentID) (agentbus.Agent, error) {
		return agentbus.HandlerFunc(func(ctx *agentbus.MessageContext, msg *agentbus.Message) (*agentbus.Message, error) {
			received <- msg.Type
			return nil, nil
		}), nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Start(ctx))

	require.NoError(t, bus.Publish(ctx, agentbus.NewMessage("order.created", nil), agentbus.NewTopicID("orders", "s1")))
	require.NoError(t, bus.StopWhenIdle(ctx))

	select {
	case msgType := <-received:
		assert.Equal(t, "order.created", msgType)
	default:
		t.Fatal("declarative subscription did not route the publish")
	}
}

func TestNewFromConfigNil(t *testing.T) {
	_, err := agentbus.NewFromConfig(nil)
	assert.Error(t, err)
}
