package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbus-dev/agentbus/agent"
)

func nopFactory(calls *int) agent.Factory {
	return func(id agent.AgentID) (agent.Agent, error) {
		if calls != nil {
			*calls++
		}
		return agent.HandlerFunc(func(ctx *agent.MessageContext, msg *agent.Message) (*agent.Message, error) {
			return nil, nil
		}), nil
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry(NewScheduler(0), 0)
	require.NoError(t, r.Register("Echo", nopFactory(nil), nil))
	err := r.Register("Echo", nopFactory(nil), nil)
	assert.ErrorIs(t, err, agent.ErrDuplicateRegistration)
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry(NewScheduler(0), 0)
	_, err := r.GetOrCreate(agent.NewAgentID("Ghost", "default"))
	assert.ErrorIs(t, err, agent.ErrUnknownAgentType)
}

func TestRegistryInstanceCaching(t *testing.T) {
	r := NewRegistry(NewScheduler(0), 0)
	calls := 0
	require.NoError(t, r.Register("Echo", nopFactory(&calls), nil))

	id := agent.NewAgentID("Echo", "session-1")
	first, err := r.GetOrCreate(id)
	require.NoError(t, err)
	second, err := r.GetOrCreate(id)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	// A different key gets its own instance.
	other, err := r.GetOrCreate(agent.NewAgentID("Echo", "session-2"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, calls)
	assert.Len(t, r.Instances(), 2)
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry(NewScheduler(0), 0)
	boom := errors.New("boom")
	require.NoError(t, r.Register("Broken", func(id agent.AgentID) (agent.Agent, error) {
		return nil, boom
	}, nil))

	_, err := r.GetOrCreate(agent.NewAgentID("Broken", "default"))
	assert.ErrorIs(t, err, boom)

	// The failed creation is not cached.
	_, ok := r.Instance(agent.NewAgentID("Broken", "default"))
	assert.False(t, ok)
}
