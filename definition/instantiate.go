package definition

import (
	"context"
	"time"

	"github.com/kbukum/pipelinedef/dag"
	"github.com/kbukum/pipelinedef/observability"
)

// createGuardTimeout bounds how long Create waits for the definition to
// become AVAILABLE before giving up.
const createGuardTimeout = 5 * time.Second

// ExecutablePipeline is the short-lived runnable graph produced by
// Create, bound to one request/response pair. It owns the concrete node
// objects it contains; the owning Definition does not retain them.
type ExecutablePipeline struct {
	graph    *dag.Graph
	engine   *dag.Engine
	guard    UnloadGuard
	response map[string]any
}

// Run executes every node in dependency order and returns the populated
// response map, the same map passed to Create.
func (p *ExecutablePipeline) Run(ctx context.Context) (map[string]any, error) {
	result, err := p.engine.ExecuteBatch(ctx, p.graph, dag.NewState())
	if err != nil {
		return nil, err
	}
	for _, nr := range result.NodeResults {
		if nr.Error != nil {
			return nil, nr.Error
		}
	}
	return p.response, nil
}

// Release returns the pipeline's unload-guard on the owning definition.
// Callers must call this exactly once when done with the pipeline.
func (p *ExecutablePipeline) Release() { p.guard.Release() }

// Create implements spec.md §4.4's Pipeline Instantiator: acquire an
// unload-guard, build EntryNode/DLNode/ExitNode objects per NodeInfo, wire
// them per the connection map, and return the assembled pipeline while
// the guard remains held by the caller.
func Create(ctx context.Context, def *Definition, request map[string]any, response map[string]any, invoker ModelInvoker) (*ExecutablePipeline, *Error) {
	ctx, span := observability.StartSpan(ctx, "definition.create")
	defer span.End()

	g, err := def.WaitForLoaded(ctx, createGuardTimeout)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	nodes, connections := def.snapshot()

	graph := &dag.Graph{Nodes: make(map[string]dag.Node, len(nodes))}
	for _, n := range nodes {
		// ENTRY never consumes edges: a dependant-ENTRY connection is
		// only valid with an empty mapping (spec.md §9 Open Question)
		// and carries no data, so it contributes no dag.Edge either.
		var deps []dependencyMapping
		if n.Kind != KindEntry {
			deps = toDependencyMappings(connections[n.NodeName])
		}

		switch n.Kind {
		case KindEntry:
			graph.Nodes[n.NodeName] = &entryNode{info: n, request: request}
		case KindDL:
			graph.Nodes[n.NodeName] = &dlNode{info: n, deps: deps, invoker: invoker}
		case KindExit:
			graph.Nodes[n.NodeName] = &exitNode{info: n, deps: deps, response: response}
		}

		for _, dm := range deps {
			graph.Edges = append(graph.Edges, dag.Edge{From: dm.depName, To: n.NodeName})
		}
	}

	return &ExecutablePipeline{
		graph:    graph,
		engine:   &dag.Engine{},
		guard:    g,
		response: response,
	}, nil
}

func toDependencyMappings(deps map[string]EdgeMapping) []dependencyMapping {
	names := dependencyNames(deps)
	out := make([]dependencyMapping, 0, len(names))
	for _, name := range names {
		out = append(out, dependencyMapping{depName: name, mapping: deps[name]})
	}
	return out
}
