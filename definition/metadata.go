package definition

import (
	"context"
	"time"
)

// unspecifiedTensorInfo is the placeholder descriptor used when the
// adjacent node is ENTRY or EXIT rather than a DL model, per spec.md
// §4.5.
var unspecifiedTensorInfo = TensorInfo{Shape: nil, Precision: "unspecified"}

const metadataGuardTimeout = 5 * time.Second

// GetInputsInfo computes the definition's externally visible input
// signature by scanning edges out of ENTRY, per spec.md §4.5.
func GetInputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	return traceMetadataOp(ctx, "definition.getInputsInfo", func(ctx context.Context) (map[string]TensorInfo, *Error) {
		return getInputsInfo(ctx, def)
	})
}

func getInputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	nodes, connections := def.snapshot()
	byName := nodeIndex(nodes)

	var entryName string
	for _, n := range nodes {
		if n.Kind == KindEntry {
			entryName = n.NodeName
			break
		}
	}

	result := make(map[string]TensorInfo)
	var guards []UnloadGuard
	defer func() { releaseAll(guards) }()

	for dependantName, deps := range connections {
		mapping, ok := deps[entryName]
		if !ok {
			continue
		}
		dependant, ok := byName[dependantName]
		if !ok {
			continue
		}
		for alias, realName := range mapping {
			if dependant.Kind == KindDL {
				instance, guard, derr := acquireInstance(ctx, def.validator.registry, dependant.ModelName, dependant.resolvedVersion())
				if derr != nil {
					return nil, derr
				}
				guards = append(guards, guard)
				info, ok := instance.GetInputsInfo()[realName]
				if !ok {
					return nil, newError(CodeModelMissing, "model input tensor unavailable", "model %q input %q", dependant.ModelName, realName)
				}
				result[alias] = info
			} else {
				result[alias] = unspecifiedTensorInfo
			}
		}
	}
	return result, nil
}

// GetOutputsInfo scans edges into EXIT symmetrically, per spec.md §4.5.
func GetOutputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	return traceMetadataOp(ctx, "definition.getOutputsInfo", func(ctx context.Context) (map[string]TensorInfo, *Error) {
		return getOutputsInfo(ctx, def)
	})
}

func getOutputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	nodes, connections := def.snapshot()
	byName := nodeIndex(nodes)

	var exitName string
	for _, n := range nodes {
		if n.Kind == KindExit {
			exitName = n.NodeName
			break
		}
	}

	result := make(map[string]TensorInfo)
	var guards []UnloadGuard
	defer func() { releaseAll(guards) }()

	deps := connections[exitName]
	for depName, mapping := range deps {
		dep, ok := byName[depName]
		if !ok {
			continue
		}
		for alias, realName := range mapping {
			if dep.Kind == KindDL {
				instance, guard, derr := acquireInstance(ctx, def.validator.registry, dep.ModelName, dep.resolvedVersion())
				if derr != nil {
					return nil, derr
				}
				guards = append(guards, guard)
				underlying := dep.OutputNameAliases[alias]
				info, ok := instance.GetOutputsInfo()[underlying]
				if !ok {
					return nil, newError(CodeModelMissing, "model output tensor unavailable", "model %q output %q", dep.ModelName, underlying)
				}
				result[realName] = info
			} else {
				result[realName] = unspecifiedTensorInfo
			}
		}
	}
	return result, nil
}

func nodeIndex(nodes []NodeInfo) map[string]NodeInfo {
	byName := make(map[string]NodeInfo, len(nodes))
	for _, n := range nodes {
		byName[n.NodeName] = n
	}
	return byName
}

func acquireInstance(ctx context.Context, registry ModelRegistry, modelName string, version uint64) (Instance, UnloadGuard, *Error) {
	model, ok := registry.FindModelByName(modelName)
	if !ok {
		return nil, nil, newError(CodeModelMissing, "model not found", "model %q", modelName)
	}
	instance, err := model.FindModelInstance(modelName, version)
	if err != nil || instance == nil {
		return nil, nil, newError(CodeModelMissing, "model version not found", "model %q version %d", modelName, version)
	}
	guard, werr := instance.WaitForLoaded(ctx, metadataGuardTimeout)
	if werr != nil {
		return nil, nil, translateLoadError(werr)
	}
	return instance, guard, nil
}

func releaseAll(guards []UnloadGuard) {
	for _, g := range guards {
		g.Release()
	}
}
