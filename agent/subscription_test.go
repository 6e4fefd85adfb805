package agent

import "testing"

func TestTypeSubscription(t *testing.T) {
	sub := NewTypeSubscription("orders", "Auditor")

	if !sub.Matches(NewTopicID("orders", "s1")) {
		t.Error("expected match on topic type")
	}
	if sub.Matches(NewTopicID("payments", "s1")) {
		t.Error("unexpected match on different topic type")
	}

	id := sub.MapTo(NewTopicID("orders", "s1"))
	if id != (AgentID{Type: "Auditor", Key: "s1"}) {
		t.Errorf("unexpected mapping: %v", id)
	}
}

func TestDefaultSubscriptionUnbound(t *testing.T) {
	sub := DefaultSubscription()
	if sub.Matches(NewTopicID("Echo", "s1")) {
		t.Error("unbound default subscription must not match")
	}
}

func TestDefaultSubscriptionBound(t *testing.T) {
	binder, ok := DefaultSubscription().(TypeBinder)
	if !ok {
		t.Fatal("default subscription must implement TypeBinder")
	}
	sub := binder.BindAgentType("Echo")

	if !sub.Matches(NewTopicID("Echo", "s1")) {
		t.Error("bound subscription must match its agent type")
	}
	if sub.Matches(NewTopicID("Other", "s1")) {
		t.Error("bound subscription must not match other topic types")
	}
	if got := sub.MapTo(NewTopicID("Echo", "s1")); got != (AgentID{Type: "Echo", Key: "s1"}) {
		t.Errorf("unexpected mapping: %v", got)
	}
}
