package definition

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/pipelinedef/logger"
	"github.com/kbukum/pipelinedef/redis"
)

// tensorInfoSet is the unit stored per cache entry: one definition's full
// input or output signature.
type tensorInfoSet struct {
	Tensors map[string]TensorInfo
}

// metadataCacheTTL bounds how long a cached signature survives even
// without an intervening reload, as a safety net against a generation
// counter that never advances on a long-lived definition.
const metadataCacheTTL = 10 * time.Minute

// MetadataCache accelerates GetInputsInfo/GetOutputsInfo with a
// redis.TypedStore-backed cache keyed by (definition name, generation,
// direction), so repeated metadata queries against a stable definition
// avoid re-resolving and guarding every upstream model instance. A nil
// *MetadataCache is valid and simply disables caching, matching this
// subsystem's treatment of Redis as an optional accelerator rather than
// a required dependency.
type MetadataCache struct {
	store *redis.TypedStore[tensorInfoSet]
	log   *logger.Logger
}

// NewMetadataCache wraps an existing Redis client. Pass a nil client to
// get a cache that is present but inert (every Get is a miss and every
// Put is a no-op), which keeps callers from needing a separate nil-check
// path for "Redis disabled" versus "Redis enabled but empty".
func NewMetadataCache(client *redis.Client, log *logger.Logger) *MetadataCache {
	if client == nil {
		return &MetadataCache{log: log.WithComponent("metadata_cache")}
	}
	return &MetadataCache{
		store: redis.NewTypedStore[tensorInfoSet](client, "pipelinedef:metadata"),
		log:   log.WithComponent("metadata_cache"),
	}
}

func metadataCacheKey(definitionName string, generation uint64, direction string) string {
	return fmt.Sprintf("%s:%d:%s", definitionName, generation, direction)
}

// GetInputsInfo returns def's input signature, consulting the cache
// before falling back to the uncached resolution path and populating the
// cache on a miss.
func (c *MetadataCache) GetInputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	return c.cached(ctx, def, "inputs", getInputsInfo)
}

// GetOutputsInfo is the output-signature counterpart to GetInputsInfo.
func (c *MetadataCache) GetOutputsInfo(ctx context.Context, def *Definition) (map[string]TensorInfo, *Error) {
	return c.cached(ctx, def, "outputs", getOutputsInfo)
}

func (c *MetadataCache) cached(ctx context.Context, def *Definition, direction string, resolve func(context.Context, *Definition) (map[string]TensorInfo, *Error)) (map[string]TensorInfo, *Error) {
	if c == nil || c.store == nil {
		return resolve(ctx, def)
	}

	key := metadataCacheKey(def.Name(), def.Generation(), direction)
	if cached, err := c.store.Load(ctx, key); err == nil && cached != nil {
		return cached.Tensors, nil
	} else if err != nil {
		c.log.Warn("metadata cache load failed, falling back", map[string]interface{}{"key": key, "error": err.Error()})
	}

	result, derr := resolve(ctx, def)
	if derr != nil {
		return nil, derr
	}

	if err := c.store.Save(ctx, key, &tensorInfoSet{Tensors: result}, metadataCacheTTL); err != nil {
		c.log.Warn("metadata cache save failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return result, nil
}
