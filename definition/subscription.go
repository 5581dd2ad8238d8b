package definition

import (
	"sync"

	"github.com/kbukum/pipelinedef/logger"
)

// SubscriptionTarget is a (model, version) watch, where version 0 encodes
// "default version" per spec.md §3/§6. It doubles as the manager's internal
// deduplication key and as the exported shape Targets returns.
type SubscriptionTarget struct {
	ModelName string
	Version   uint64
}

// SubscriptionManager maintains the set of (model, version) watches for
// one definition, attaching on reload and detaching on reload/retire, per
// spec.md §4.3. The subscriber identity used against Model/Instance is
// the owning definition's name; the relationship is a weak reference on
// both sides per spec.md's Ownership section.
type SubscriptionManager struct {
	mu            sync.Mutex
	pipelineName  string
	registry      ModelRegistry
	log           *logger.Logger
	subscriptions map[SubscriptionTarget]bool
}

// NewSubscriptionManager constructs a manager for one definition.
func NewSubscriptionManager(pipelineName string, registry ModelRegistry, log *logger.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		pipelineName:  pipelineName,
		registry:      registry,
		log:           log.WithComponent("subscription"),
		subscriptions: make(map[SubscriptionTarget]bool),
	}
}

// MakeSubscriptions subscribes to every (model, version) pair referenced
// by a DL node that isn't already subscribed. A missing model is logged
// as a warning and skipped — not fatal here, per spec.md §9's preserved
// design: the validator will subsequently reject the definition. Calling
// this twice without an intervening ResetSubscriptions is idempotent: the
// dedup set ensures subscribe is invoked at most once per unique target.
func (m *SubscriptionManager) MakeSubscriptions(nodes []NodeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range nodes {
		if n.Kind != KindDL {
			continue
		}
		key := SubscriptionTarget{ModelName: n.ModelName, Version: n.resolvedVersion()}
		if m.subscriptions[key] {
			continue
		}

		model, ok := m.registry.FindModelByName(n.ModelName)
		if !ok {
			m.log.Warn("cannot subscribe: model not found", map[string]interface{}{
				"pipeline": m.pipelineName,
				"node":     n.NodeName,
				"model":    n.ModelName,
				"version":  key.Version,
			})
			continue
		}

		if key.Version != 0 {
			instance, err := model.FindModelInstance(n.ModelName, key.Version)
			if err != nil || instance == nil {
				m.log.Warn("cannot subscribe: model version not found", map[string]interface{}{
					"pipeline": m.pipelineName,
					"node":     n.NodeName,
					"model":    n.ModelName,
					"version":  key.Version,
				})
				continue
			}
			instance.Subscribe(m.pipelineName)
		} else {
			model.Subscribe(m.pipelineName)
		}
		m.subscriptions[key] = true
	}
}

// ResetSubscriptions unsubscribes from every currently tracked target and
// clears the set. Symmetric with MakeSubscriptions.
func (m *SubscriptionManager) ResetSubscriptions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.subscriptions {
		model, ok := m.registry.FindModelByName(key.ModelName)
		if !ok {
			continue
		}
		if key.Version != 0 {
			if instance, err := model.FindModelInstance(key.ModelName, key.Version); err == nil && instance != nil {
				instance.Unsubscribe(m.pipelineName)
			}
		} else {
			model.Unsubscribe(m.pipelineName)
		}
		delete(m.subscriptions, key)
	}
}

// Targets returns the current subscription set, for tests and introspection.
func (m *SubscriptionManager) Targets() []SubscriptionTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubscriptionTarget, 0, len(m.subscriptions))
	for k := range m.subscriptions {
		out = append(out, k)
	}
	return out
}
