package definition

import (
	"context"
	"sort"
	"strings"
	"time"
)

// validationGuardTimeout bounds how long a single model-instance lookup
// during validation waits for the instance to become available.
const validationGuardTimeout = 5 * time.Second

// Validator implements the two-phase graph validation described in
// spec.md §4.1: node-level validation followed by cycle/connectivity
// checking via a reverse depth-first search rooted at EXIT.
type Validator struct {
	registry ModelRegistry
}

// NewValidator constructs a Validator bound to a model registry.
func NewValidator(registry ModelRegistry) *Validator {
	return &Validator{registry: registry}
}

// Validate runs validateNodes then validateForCycles and returns the
// first detected error, or nil on success. There is no partial-success
// state, per spec.md §7.
func (v *Validator) Validate(ctx context.Context, nodes []NodeInfo, connections Connections) *Error {
	byName := make(map[string]NodeInfo, len(nodes))
	for _, n := range nodes {
		byName[n.NodeName] = n
	}

	if err := v.validateNodes(ctx, nodes, byName, connections); err != nil {
		return err
	}
	return validateForCycles(nodes, connections)
}

// validateNodes is Phase 1: entry/exit cardinality, duplicate names, then
// per-node validation.
func (v *Validator) validateNodes(ctx context.Context, nodes []NodeInfo, byName map[string]NodeInfo, connections Connections) *Error {
	entryCount, exitCount := 0, 0
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		switch n.Kind {
		case KindEntry:
			entryCount++
		case KindExit:
			exitCount++
		case KindUnknown:
			return newError(CodeNodeWrongKindConfiguration, "node kind does not match a recognized configuration token", "node %q", n.NodeName)
		}
		if seen[n.NodeName] {
			return newError(CodeNodeNameDuplicate, "duplicate node name", "node %q", n.NodeName)
		}
		seen[n.NodeName] = true
	}
	if entryCount == 0 || exitCount == 0 {
		return newError(CodeMissingEntryOrExit, "definition must have exactly one ENTRY and one EXIT node", "entry=%d exit=%d", entryCount, exitCount)
	}
	if entryCount > 1 {
		return newError(CodeMultipleEntryNodes, "definition has more than one ENTRY node", "count=%d", entryCount)
	}
	if exitCount > 1 {
		return newError(CodeMultipleExitNodes, "definition has more than one EXIT node", "count=%d", exitCount)
	}

	for _, n := range nodes {
		if err := v.validateNode(ctx, n, byName, connections); err != nil {
			return err
		}
	}
	return nil
}

// validateNode implements spec.md §4.1's per-node validation algorithm.
func (v *Validator) validateNode(ctx context.Context, node NodeInfo, byName map[string]NodeInfo, connections Connections) *Error {
	var remainingInputs map[string]bool
	var dependantInstance Instance
	var guards []UnloadGuard
	defer func() {
		for _, g := range guards {
			g.Release()
		}
	}()

	if node.Kind == KindDL {
		instance, derr := v.lookupInstance(ctx, node.ModelName, node.resolvedVersion())
		if derr != nil {
			return derr
		}
		guard, err := instance.WaitForLoaded(ctx, validationGuardTimeout)
		if err != nil {
			return translateLoadError(err)
		}
		guards = append(guards, guard)
		dependantInstance = instance

		cfg := instance.GetModelConfig()
		if cfg.BatchingMode == BatchingModeAuto {
			return newError(CodeForbiddenModelDynamicParameter, "model uses AUTO batching mode", "model %q", node.ModelName)
		}
		for name, mode := range cfg.ShapeModes {
			if mode == ShapeModeAuto {
				return newError(CodeForbiddenModelDynamicParameter, "model uses AUTO shape mode", "model %q tensor %q", node.ModelName, name)
			}
		}

		remainingInputs = make(map[string]bool)
		for name := range instance.GetInputsInfo() {
			remainingInputs[name] = true
		}
	}

	deps := connections[node.NodeName]
	for _, depName := range dependencyNames(deps) {
		mapping := deps[depName]

		if node.Kind == KindEntry {
			if len(mapping) != 0 {
				return newError(CodeUnknownError, "ENTRY node cannot be a dependant with a non-empty mapping", "node %q depends on %q", node.NodeName, depName)
			}
			// Accepted per spec.md §9 Open Question: ENTRY-as-dependant
			// with an empty mapping is a silent no-op edge.
			continue
		}

		depNode, ok := byName[depName]
		if !ok {
			return newError(CodeReferingToMissingNode, "edge names a non-existent dependency", "node %q depends on %q", node.NodeName, depName)
		}
		if depNode.Kind == KindExit {
			return newError(CodeUnknownError, "EXIT node cannot be a dependency", "node %q depends on %q", node.NodeName, depName)
		}

		var depInstance Instance
		if depNode.Kind == KindDL {
			instance, derr := v.lookupInstance(ctx, depNode.ModelName, depNode.resolvedVersion())
			if derr != nil {
				return derr
			}
			guard, err := instance.WaitForLoaded(ctx, validationGuardTimeout)
			if err != nil {
				return translateLoadError(err)
			}
			guards = append(guards, guard)
			depInstance = instance
		}

		aliases := make([]string, 0, len(mapping))
		for alias := range mapping {
			aliases = append(aliases, alias)
		}
		sort.Strings(aliases)

		for _, alias := range aliases {
			realName := mapping[alias]

			if node.Kind == KindDL {
				if !remainingInputs[realName] {
					return newError(CodeConnectionToMissingNodeInput, "realName is not an unfed input of the dependant model", "node %q input %q (via %q)", node.NodeName, realName, depName)
				}
				delete(remainingInputs, realName)
			}

			underlying, ok := depNode.OutputNameAliases[alias]
			if !ok {
				return newError(CodeReferingToMissingDataSource, "alias absent from dependency's output aliases", "alias %q on %q", alias, depName)
			}

			if depNode.Kind == KindDL {
				if _, ok := depInstance.GetOutputsInfo()[underlying]; !ok {
					return newError(CodeReferingToMissingModelOutput, "dependency model lacks the claimed output tensor", "model %q output %q", depNode.ModelName, underlying)
				}
			}

			if node.Kind == KindDL && depNode.Kind == KindDL {
				depOut := depInstance.GetOutputsInfo()[underlying]
				dependantIn := dependantInstance.GetInputsInfo()[realName]
				if !shapesEqual(depOut.Shape, dependantIn.Shape) {
					return newError(CodeInvalidShape, "tensor shape mismatch across DL edge", "%q:%v -> %q:%v", underlying, depOut.Shape, realName, dependantIn.Shape)
				}
				if depOut.Precision != dependantIn.Precision {
					return newError(CodeInvalidPrecision, "tensor precision mismatch across DL edge", "%q:%s -> %q:%s", underlying, depOut.Precision, realName, dependantIn.Precision)
				}
			}
		}
	}

	if node.Kind == KindDL && len(remainingInputs) > 0 {
		names := make([]string, 0, len(remainingInputs))
		for name := range remainingInputs {
			names = append(names, name)
		}
		sort.Strings(names)
		return newError(CodeNotAllInputsConnected, "not all model inputs were connected", "node %q missing %s", node.NodeName, strings.Join(names, ", "))
	}

	return nil
}

func (v *Validator) lookupInstance(ctx context.Context, modelName string, version uint64) (Instance, *Error) {
	model, ok := v.registry.FindModelByName(modelName)
	if !ok {
		return nil, newError(CodeReferingToMissingModel, "model not found", "model %q", modelName)
	}
	instance, err := model.FindModelInstance(modelName, version)
	if err != nil || instance == nil {
		return nil, newError(CodeReferingToMissingModel, "model version not found", "model %q version %d", modelName, version)
	}
	return instance, nil
}

func translateLoadError(err error) *Error {
	if derr, ok := err.(*Error); ok {
		return derr
	}
	return newError(CodeReferingToMissingModel, "model instance failed to load", "%v", err)
}

func shapesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validateForCycles is Phase 2: iterative reverse-DFS from EXIT, per
// spec.md §4.1. connections is keyed dependant -> dependency, so walking
// forward along dependency edges starting at EXIT traverses the graph in
// topological reverse.
func validateForCycles(nodes []NodeInfo, connections Connections) *Error {
	var exitName string
	found := false
	for _, n := range nodes {
		if n.Kind == KindExit {
			exitName = n.NodeName
			found = true
			break
		}
	}
	if !found {
		return newError(CodeMissingEntryOrExit, "no EXIT node to root the reverse traversal", "")
	}

	visited := make(map[string]bool)
	visitedOrder := []string{}
	onPath := make(map[string]bool)
	parentStack := []string{}

	current := exitName
	onPath[current] = true
	parentStack = append(parentStack, current)
	if !visited[current] {
		visited[current] = true
		visitedOrder = append(visitedOrder, current)
	}

	for len(parentStack) > 0 {
		current = parentStack[len(parentStack)-1]
		neighbors := dependencyNames(connections[current])

		advanced := false
		for _, neighbor := range neighbors {
			if neighbor == current {
				return newError(CodeCycleFound, "self-loop detected", "node %q", current)
			}
			if onPath[neighbor] {
				return newError(CodeCycleFound, "cycle detected", "%s", cyclePath(parentStack, neighbor))
			}
			if visited[neighbor] {
				continue // cross/forward edge, already fully explored
			}
			visited[neighbor] = true
			visitedOrder = append(visitedOrder, neighbor)
			onPath[neighbor] = true
			parentStack = append(parentStack, neighbor)
			advanced = true
			break
		}
		if !advanced {
			onPath[current] = false
			parentStack = parentStack[:len(parentStack)-1]
		}
	}

	if len(visitedOrder) != len(nodes) {
		return newError(CodeContainsUnconnectedNodes, "some nodes are unreachable from EXIT", "reached %d of %d", len(visitedOrder), len(nodes))
	}
	return nil
}

func cyclePath(parentStack []string, closingNode string) string {
	idx := 0
	for i, n := range parentStack {
		if n == closingNode {
			idx = i
			break
		}
	}
	path := append([]string{}, parentStack[idx:]...)
	path = append(path, closingNode)
	return strings.Join(path, " -> ")
}
