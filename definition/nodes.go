package definition

import (
	"context"
	"fmt"

	"github.com/kbukum/pipelinedef/dag"
)

// ModelInvoker executes one DL node's underlying model given its resolved
// inputs (keyed by realName) and returns its outputs (keyed by the
// model's own output names, before alias resolution). The actual tensor
// transfer and inference engine is out of scope for this subsystem
// (spec.md §1); callers of Create supply the invoker that bridges to it.
type ModelInvoker func(ctx context.Context, modelName string, version uint64, inputs map[string]any) (map[string]any, error)

func stateKey(nodeName, alias string) string { return nodeName + "#" + alias }

// entryNode adapts the bound request into named outputs under
// OutputNameAliases.
type entryNode struct {
	info    NodeInfo
	request map[string]any
}

func (n *entryNode) Name() string { return n.info.NodeName }

func (n *entryNode) Run(_ context.Context, state *dag.State) (any, error) {
	out := make(map[string]any, len(n.info.OutputNameAliases))
	for alias, underlying := range n.info.OutputNameAliases {
		val := n.request[underlying]
		state.Set(stateKey(n.info.NodeName, alias), val)
		out[alias] = val
	}
	return out, nil
}

// dependencyMapping captures, for one incoming edge, which dependency
// node publishes which (alias -> realName) pairs.
type dependencyMapping struct {
	depName string
	mapping EdgeMapping
}

// dlNode wraps one versioned model invocation, resolving its inputs from
// upstream node outputs already written to dag.State and publishing its
// own outputs under its declared aliases.
type dlNode struct {
	info    NodeInfo
	deps    []dependencyMapping
	invoker ModelInvoker
}

func (n *dlNode) Name() string { return n.info.NodeName }

func (n *dlNode) Run(ctx context.Context, state *dag.State) (any, error) {
	if n.invoker == nil {
		return nil, fmt.Errorf("definition: no model invoker configured for node %q (model %q)", n.info.NodeName, n.info.ModelName)
	}

	inputs := make(map[string]any)
	for _, dm := range n.deps {
		for alias, realName := range dm.mapping {
			val, _ := state.Get(stateKey(dm.depName, alias))
			inputs[realName] = val
		}
	}

	modelOutputs, err := n.invoker(ctx, n.info.ModelName, n.info.resolvedVersion(), inputs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(n.info.OutputNameAliases))
	for alias, underlying := range n.info.OutputNameAliases {
		val := modelOutputs[underlying]
		state.Set(stateKey(n.info.NodeName, alias), val)
		out[alias] = val
	}
	return out, nil
}

// exitNode adapts the graph's final outputs into the bound response.
type exitNode struct {
	info     NodeInfo
	deps     []dependencyMapping
	response map[string]any
}

func (n *exitNode) Name() string { return n.info.NodeName }

func (n *exitNode) Run(_ context.Context, state *dag.State) (any, error) {
	for _, dm := range n.deps {
		for alias, realName := range dm.mapping {
			val, _ := state.Get(stateKey(dm.depName, alias))
			n.response[realName] = val
		}
	}
	return n.response, nil
}
