package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentbus-dev/agentbus/agent"
)

func TestSubscriptionIndexResolve(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Add(agent.NewTypeSubscription("orders", "Auditor"))
	x.Add(agent.NewTypeSubscription("orders", "Biller"))
	x.Add(agent.NewTypeSubscription("shipments", "Shipper"))

	ids := x.Resolve(agent.NewTopicID("orders", "store-1"))
	assert.Equal(t, []agent.AgentID{
		{Type: "Auditor", Key: "store-1"},
		{Type: "Biller", Key: "store-1"},
	}, ids)
	assert.Equal(t, 3, x.Len())
}

func TestSubscriptionIndexResolveNoMatch(t *testing.T) {
	x := NewSubscriptionIndex()
	x.Add(agent.NewTypeSubscription("orders", "Auditor"))

	ids := x.Resolve(agent.NewTopicID("payments", "store-1"))
	assert.Empty(t, ids)
}

func TestSubscriptionIndexResolveDedup(t *testing.T) {
	x := NewSubscriptionIndex()
	// Two rules resolving to the same instance deliver once.
	x.Add(agent.NewTypeSubscription("orders", "Auditor"))
	x.Add(agent.NewTypeSubscription("orders", "Auditor"))

	ids := x.Resolve(agent.NewTopicID("orders", "store-1"))
	assert.Equal(t, []agent.AgentID{{Type: "Auditor", Key: "store-1"}}, ids)
}
