package definition

import (
	"context"
	"time"
)

// ShapeMode identifies how a model's tensor shape is configured.
type ShapeMode int

const (
	// ShapeModeFixed is a statically declared shape.
	ShapeModeFixed ShapeMode = iota
	// ShapeModeAuto defers the shape to request time; forbidden inside pipelines.
	ShapeModeAuto
)

// BatchingMode identifies how a model's batch dimension is configured.
type BatchingMode int

const (
	// BatchingModeFixed is a statically declared batch size.
	BatchingModeFixed BatchingMode = iota
	// BatchingModeAuto defers the batch size to request time; forbidden inside pipelines.
	BatchingModeAuto
)

// TensorInfo describes one tensor's shape and precision.
type TensorInfo struct {
	Shape     []int64
	Precision string
}

// Equal reports whether two tensor descriptors have matching shape and precision.
func (t TensorInfo) Equal(other TensorInfo) bool {
	if t.Precision != other.Precision {
		return false
	}
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// ModelConfig reports a model instance's dynamic-parameter configuration.
type ModelConfig struct {
	BatchingMode BatchingMode
	ShapeModes   map[string]ShapeMode // keyed by input/output tensor name
}

// UnloadGuard is a scoped handle acquired from waitForLoaded; it must be
// released exactly once, typically via defer, to decrement the holder's
// usage counter.
type UnloadGuard interface {
	Release()
}

// Instance is one loaded version of a model.
type Instance interface {
	// Subscribe registers a definition to be notified of changes to this instance.
	Subscribe(subscriber string)
	// Unsubscribe removes a previously registered subscriber.
	Unsubscribe(subscriber string)
	// WaitForLoaded blocks until the instance is available, the timeout
	// elapses (ErrModelVersionNotLoadedYet), or the instance retires while
	// waiting (ErrModelVersionNotLoadedAnymore).
	WaitForLoaded(ctx context.Context, timeout time.Duration) (UnloadGuard, error)
	// GetInputsInfo returns tensor descriptors keyed by input name.
	GetInputsInfo() map[string]TensorInfo
	// GetOutputsInfo returns tensor descriptors keyed by output name.
	GetOutputsInfo() map[string]TensorInfo
	// GetModelConfig reports the instance's batching/shape configuration.
	GetModelConfig() ModelConfig
}

// Model is a named model that may have multiple loaded versions.
type Model interface {
	// GetModelInstanceByVersion resolves an explicit version, or the
	// default version when version == 0.
	GetModelInstanceByVersion(version uint64) (Instance, error)
	// FindModelInstance is the fully-qualified lookup by (name, version);
	// version == 0 means "use the default version".
	FindModelInstance(name string, version uint64) (Instance, error)
	// Subscribe registers a definition to be notified of changes to the
	// model's default version.
	Subscribe(subscriber string)
	// Unsubscribe removes a previously registered subscriber.
	Unsubscribe(subscriber string)
}

// ModelRegistry is the boundary toward the model catalog: lookup,
// version resolution, and instance-level load guards. Implementations
// are supplied by the model manager; this package only depends on the
// interface.
type ModelRegistry interface {
	// FindModelByName returns the named model, or (nil, false) if absent.
	FindModelByName(name string) (Model, bool)
}
