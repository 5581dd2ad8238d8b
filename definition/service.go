package definition

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pipelinedef/component"
	"github.com/kbukum/pipelinedef/kafka"
	"github.com/kbukum/pipelinedef/kafka/consumer"
	"github.com/kbukum/pipelinedef/logger"
	"github.com/kbukum/pipelinedef/observability"
)

// Service owns the set of live Definitions for one process, and
// implements component.Component so it can be registered with a
// component.Registry alongside the rest of a binary's infrastructure.
// It is the subscription target catalog events are routed through and
// the definition source the admin API reads from.
type Service struct {
	mu          sync.RWMutex
	definitions map[string]*Definition

	registry ModelRegistry
	log      *logger.Logger
	metrics  *observability.Metrics

	cache    *MetadataCache
	consumer *consumer.ManagedConsumer
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithMetadataCache attaches a Redis-backed metadata cache. Passing a
// *MetadataCache built from a nil client is equivalent to omitting this
// option.
func WithMetadataCache(cache *MetadataCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// WithCatalogConsumer attaches a kafka/consumer.ManagedConsumer that
// drives model-catalog notifications into this service's definitions.
// The caller constructs it with NewCatalogConsumer.
func WithCatalogConsumer(c *consumer.ManagedConsumer) ServiceOption {
	return func(s *Service) { s.consumer = c }
}

// AttachCatalogConsumer sets the catalog consumer after construction, for
// callers that must build the consumer from the very Service it will
// notify (NewCatalogConsumer takes a *Service to resolve subscribers).
func (s *Service) AttachCatalogConsumer(c *consumer.ManagedConsumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumer = c
}

// NewService constructs a Service backed by the given model registry.
func NewService(registry ModelRegistry, log *logger.Logger, metrics *observability.Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		definitions: make(map[string]*Definition),
		registry:    registry,
		log:         log.WithComponent("definition_service"),
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCatalogConsumer wires a CatalogEventTranslator into a Kafka
// consumer reading model-catalog change events off the given topic, per
// the corresponding domain-stack commitment in the expanded specification.
func NewCatalogConsumer(cfg kafka.Config, topic string, svc *Service, log *logger.Logger) (*consumer.ManagedConsumer, error) {
	translator := NewCatalogEventTranslator(svc.Lookup, svc.subscribersOf, log)

	var handler kafka.MessageHandler = func(ctx context.Context, msg kafka.Message) error {
		if !msg.IsJSON() {
			return nil
		}
		event, err := msg.ToEvent()
		if err != nil {
			return nil
		}
		return translator.Handle(ctx, event)
	}

	return consumer.NewManagedConsumer(consumer.ManagedConsumerConfig{
		Config:  cfg,
		Topic:   topic,
		Handler: handler,
		Log:     log,
	})
}

// Name implements component.Component.
func (s *Service) Name() string { return "definition_service" }

// Start implements component.Component: it starts the catalog consumer
// if one is attached. Definitions themselves have no separate start
// step; they become usable the moment Reload succeeds.
func (s *Service) Start(ctx context.Context) error {
	if s.consumer == nil {
		return nil
	}
	return s.consumer.Start(ctx)
}

// Stop implements component.Component: it stops the catalog consumer and
// then retires every live definition, in that order, so no new validation
// work starts mid-shutdown.
func (s *Service) Stop(ctx context.Context) error {
	if s.consumer != nil {
		s.consumer.Stop()
	}
	s.mu.RLock()
	defs := make([]*Definition, 0, len(s.definitions))
	for _, d := range s.definitions {
		defs = append(defs, d)
	}
	s.mu.RUnlock()

	for _, d := range defs {
		d.Retire(ctx)
	}
	return nil
}

// Health implements component.Component: degraded if any definition
// failed to reach AVAILABLE, healthy otherwise.
func (s *Service) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, d := range s.definitions {
		state, _ := d.Status()
		if state == StateLoading {
			return component.Health{Name: s.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("%s not yet available", name)}
		}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Register creates (or replaces) a named Definition and performs its
// first Reload. The definition is visible to Lookup, the admin API, and
// catalog event routing immediately upon registration, in state LOADING
// or AVAILABLE depending on the outcome of the first validation pass.
func (s *Service) Register(ctx context.Context, name string, nodes []NodeInfo, connections Connections) (*Definition, *Error) {
	d := NewDefinition(name, s.registry, s.log, s.metrics)

	s.mu.Lock()
	s.definitions[name] = d
	s.mu.Unlock()

	if err := d.Reload(ctx, nodes, connections); err != nil {
		return d, err
	}
	return d, nil
}

// Lookup implements DefinitionLookup for catalog event routing and is
// also the read path for the admin API.
func (s *Service) Lookup(name string) (*Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.definitions[name]
	return d, ok
}

// All returns every registered definition's name.
func (s *Service) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.definitions))
	for name := range s.definitions {
		names = append(names, name)
	}
	return names
}

// GetInputsInfo resolves a definition's input signature, through the
// metadata cache when one is attached.
func (s *Service) GetInputsInfo(ctx context.Context, name string) (map[string]TensorInfo, *Error) {
	d, ok := s.Lookup(name)
	if !ok {
		return nil, newError(CodeModelMissing, "definition not found", "pipeline %q", name)
	}
	if s.cache != nil {
		return s.cache.GetInputsInfo(ctx, d)
	}
	return GetInputsInfo(ctx, d)
}

// GetOutputsInfo is the output-signature counterpart to GetInputsInfo.
func (s *Service) GetOutputsInfo(ctx context.Context, name string) (map[string]TensorInfo, *Error) {
	d, ok := s.Lookup(name)
	if !ok {
		return nil, newError(CodeModelMissing, "definition not found", "pipeline %q", name)
	}
	if s.cache != nil {
		return s.cache.GetOutputsInfo(ctx, d)
	}
	return GetOutputsInfo(ctx, d)
}

// subscribersOf returns the names of definitions subscribed to
// (modelName, version), satisfying CatalogEventTranslator's subscribers
// callback.
func (s *Service) subscribersOf(modelName string, version uint64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name, d := range s.definitions {
		for _, target := range d.subscriptions.Targets() {
			if target.ModelName != modelName {
				continue
			}
			if target.Version == version || target.Version == 0 {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

var _ component.Component = (*Service)(nil)
