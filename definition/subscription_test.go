package definition

import "testing"

func TestSubscriptionManager_SubscribesDefaultAndExplicitVersions(t *testing.T) {
	reg := newFakeRegistry()
	m := reg.addModel("m", map[uint64]*fakeInstance{
		0: newFakeInstance(nil, nil),
		2: newFakeInstance(nil, nil),
	})

	sm := NewSubscriptionManager("p1", reg, testLogger())
	nodes := []NodeInfo{
		{NodeName: "default", Kind: KindDL, ModelName: "m"},
		{NodeName: "explicit", Kind: KindDL, ModelName: "m", ModelVersion: v(2)},
	}
	sm.MakeSubscriptions(nodes)

	if !m.subs["p1"] {
		t.Fatal("expected default-version subscription on model")
	}
	if !m.versions[2].subs["p1"] {
		t.Fatal("expected explicit-version subscription on instance")
	}
}

func TestSubscriptionManager_MakeSubscriptionsIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	reg.addModel("m", map[uint64]*fakeInstance{0: newFakeInstance(nil, nil)})

	sm := NewSubscriptionManager("p1", reg, testLogger())
	nodes := []NodeInfo{{NodeName: "n", Kind: KindDL, ModelName: "m"}}

	sm.MakeSubscriptions(nodes)
	sm.MakeSubscriptions(nodes)

	if len(sm.Targets()) != 1 {
		t.Fatalf("expected exactly one tracked target, got %d", len(sm.Targets()))
	}
}

func TestSubscriptionManager_MissingModelIsSkippedNotFatal(t *testing.T) {
	reg := newFakeRegistry()
	sm := NewSubscriptionManager("p1", reg, testLogger())
	nodes := []NodeInfo{{NodeName: "n", Kind: KindDL, ModelName: "missing"}}

	sm.MakeSubscriptions(nodes)
	if len(sm.Targets()) != 0 {
		t.Fatalf("expected no tracked targets for missing model, got %d", len(sm.Targets()))
	}
}

func TestSubscriptionManager_ResetSubscriptionsUnsubscribesSymmetrically(t *testing.T) {
	reg := newFakeRegistry()
	m := reg.addModel("m", map[uint64]*fakeInstance{0: newFakeInstance(nil, nil)})

	sm := NewSubscriptionManager("p1", reg, testLogger())
	nodes := []NodeInfo{{NodeName: "n", Kind: KindDL, ModelName: "m"}}
	sm.MakeSubscriptions(nodes)
	sm.ResetSubscriptions()

	if m.subs["p1"] {
		t.Fatal("expected unsubscribe after ResetSubscriptions")
	}
	if len(sm.Targets()) != 0 {
		t.Fatal("expected empty target set after reset")
	}
}
