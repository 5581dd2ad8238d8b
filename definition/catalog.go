package definition

import (
	"context"
	"fmt"

	"github.com/kbukum/pipelinedef/kafka"
	"github.com/kbukum/pipelinedef/logger"
)

// catalogEventType values recognized in a model-catalog change event's
// Event.Type field.
const (
	catalogEventModelLoaded         = "model.loaded"
	catalogEventModelUnloaded       = "model.unloaded"
	catalogEventModelVersionChanged = "model.version_changed"
)

// DefinitionLookup resolves a definition by name, for routing catalog
// events to the definitions that subscribed to the affected model.
type DefinitionLookup func(name string) (*Definition, bool)

// CatalogEventTranslator consumes model-catalog JSON change events off
// Kafka (kafka.Event, per kafka/types.go) and triggers revalidation on
// every definition subscribed to the affected (model, version) pair. It
// is the subscription-notification half of spec.md §4.3: the registry
// decides when to notify; this translator only needs to be idempotent
// under repeated calls, which Reload already is.
type CatalogEventTranslator struct {
	lookup      DefinitionLookup
	subscribers func(modelName string, version uint64) []string
	log         *logger.Logger
}

// NewCatalogEventTranslator constructs a translator. subscribers returns
// the names of definitions currently watching (modelName, version); it is
// typically backed by the model registry's own subscription bookkeeping.
func NewCatalogEventTranslator(lookup DefinitionLookup, subscribers func(modelName string, version uint64) []string, log *logger.Logger) *CatalogEventTranslator {
	return &CatalogEventTranslator{
		lookup:      lookup,
		subscribers: subscribers,
		log:         log.WithComponent("catalog_event_translator"),
	}
}

// Handle implements kafka.EventHandler: it is wired directly to a
// kafka/consumer.ManagedConsumer as the JSON event callback.
func (t *CatalogEventTranslator) Handle(ctx context.Context, event kafka.Event) error {
	switch event.Type {
	case catalogEventModelLoaded, catalogEventModelUnloaded, catalogEventModelVersionChanged:
	default:
		return nil // not a catalog event this subsystem cares about
	}

	modelName, version, err := parseCatalogEventData(event.Data)
	if err != nil {
		t.log.Warn("ignoring malformed catalog event", map[string]interface{}{
			"type": event.Type, "error": err.Error(),
		})
		return nil
	}

	names := t.subscribers(modelName, version)
	if len(names) == 0 {
		return nil
	}

	t.log.Info("catalog event triggered revalidation", map[string]interface{}{
		"model": modelName, "version": version, "definitions": names,
	})

	for _, name := range names {
		def, ok := t.lookup(name)
		if !ok {
			continue
		}
		go revalidate(ctx, def)
	}
	return nil
}

// revalidate reloads the definition with its current snapshot: Reload
// resets and re-makes its subscriptions, re-runs validation, and bumps
// the generation on success. Repeated calls converge on the same state.
func revalidate(ctx context.Context, def *Definition) {
	nodes, connections := def.snapshot()
	if nodes == nil {
		return
	}
	_ = def.Reload(ctx, nodes, connections)
}

func parseCatalogEventData(data map[string]interface{}) (string, uint64, error) {
	modelName, _ := data["model_name"].(string)
	if modelName == "" {
		return "", 0, fmt.Errorf("catalog event missing model_name")
	}
	var version uint64
	switch v := data["version"].(type) {
	case float64:
		version = uint64(v)
	case int:
		version = uint64(v)
	}
	return modelName, version, nil
}
