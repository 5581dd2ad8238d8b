package definition

import (
	"context"

	"github.com/kbukum/pipelinedef/observability"
)

// traceMetadataOp wraps a metadata query with an OTel span, following the
// same StartSpan/SetSpanError pattern dag/observability.go's WithTracing
// node wrapper uses for individual DAG nodes, applied here to whole
// Definition-level operations instead.
func traceMetadataOp(ctx context.Context, name string, fn func(ctx context.Context) (map[string]TensorInfo, *Error)) (map[string]TensorInfo, *Error) {
	ctx, span := observability.StartSpan(ctx, name)
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return result, err
}
