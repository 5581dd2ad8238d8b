package definition

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/pipelinedef/logger"
	"github.com/kbukum/pipelinedef/observability"
)

// State is a PipelineDefinition's lifecycle state.
type State int

const (
	StateBegin State = iota
	StateLoading
	StateAvailable
	StateRetired
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateAvailable:
		return "AVAILABLE"
	case StateRetired:
		return "RETIRED"
	default:
		return "BEGIN"
	}
}

// guard is the concrete UnloadGuard returned by Definition.WaitForLoaded.
// Release is idempotent; only the first call decrements the counter.
type guard struct {
	def      *Definition
	released bool
	mu       sync.Mutex
}

func (g *guard) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	g.mu.Unlock()
	g.def.releaseUsage()
}

// Definition is the long-lived, validated graph specification for one
// named pipeline. It owns its NodeInfo and connection records exclusively;
// executable pipelines produced by Create own their own node objects.
//
// The usage counter plus condition-variable drain implement the
// epoch-based-reclamation pattern described in spec.md §5/§9: writers
// (Reload, Retire) publish state != AVAILABLE before draining, so new
// readers are rejected during the drain, then wait for the counter to
// reach zero before mutating nodeInfos/connections.
type Definition struct {
	mu    sync.Mutex
	cond  *sync.Cond
	name  string
	state State
	usage int

	nodes       []NodeInfo
	connections Connections
	generation  uint64

	subscriptions *SubscriptionManager
	validator     *Validator
	log           *logger.Logger
	metrics       *observability.Metrics
}

// NewDefinition constructs a Definition in state BEGIN, with no node or
// connection records. Call Reload to populate and validate it.
func NewDefinition(name string, registry ModelRegistry, log *logger.Logger, metrics *observability.Metrics) *Definition {
	d := &Definition{
		name:      name,
		state:     StateBegin,
		validator: NewValidator(registry),
		log:       log.WithComponent("definition").WithFields(map[string]interface{}{"pipeline": name}),
		metrics:   metrics,
	}
	d.cond = sync.NewCond(&d.mu)
	d.subscriptions = NewSubscriptionManager(name, registry, d.log)
	return d
}

// Name returns the pipeline's name.
func (d *Definition) Name() string { return d.name }

// Status returns the current lifecycle state and outstanding usage count.
func (d *Definition) Status() (State, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.usage
}

// Generation returns the current reload generation, bumped on every
// successful reload; used by the metadata cache to invalidate stale
// entries without an explicit flush call.
func (d *Definition) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// Reload implements spec.md §4.2's reload operation: tear down existing
// subscriptions, drain in-flight usage, atomically swap node/connection
// records, re-establish subscriptions, validate, and publish AVAILABLE
// on success.
func (d *Definition) Reload(ctx context.Context, nodes []NodeInfo, connections Connections) *Error {
	ctx, span := observability.StartSpan(ctx, "definition.reload")
	defer span.End()
	start := time.Now()

	d.subscriptions.ResetSubscriptions()

	d.mu.Lock()
	d.state = StateLoading
	for d.usage > 0 {
		d.cond.Wait()
	}
	d.nodes = nodes
	d.connections = connections
	d.mu.Unlock()

	d.subscriptions.MakeSubscriptions(nodes)

	verr := d.validator.Validate(ctx, nodes, connections)

	d.mu.Lock()
	if verr == nil {
		d.state = StateAvailable
		d.generation++
	} else {
		d.state = StateLoading // failed validation leaves it non-AVAILABLE
	}
	d.mu.Unlock()
	d.cond.Broadcast()

	status := "ok"
	if verr != nil {
		status = "error"
		observability.SetSpanError(ctx, verr)
		if d.metrics != nil {
			d.metrics.RecordError(ctx, string(verr.Code), "definition.reload")
		}
		d.log.Error("reload failed validation", map[string]interface{}{"code": string(verr.Code), "detail": verr.Detail})
	} else {
		d.log.Info("reload succeeded", map[string]interface{}{"generation": d.generation})
	}
	if d.metrics != nil {
		d.metrics.RecordOperation(ctx, d.name, "reload", status, time.Since(start))
	}
	return verr
}

// Retire implements spec.md §4.2's retire operation: tear down
// subscriptions, drain usage, clear records, move to RETIRED.
func (d *Definition) Retire(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, "definition.retire")
	defer span.End()

	d.subscriptions.ResetSubscriptions()

	d.mu.Lock()
	d.state = StateRetired
	for d.usage > 0 {
		d.cond.Wait()
	}
	d.nodes = nil
	d.connections = nil
	d.mu.Unlock()
	d.cond.Broadcast()

	d.log.Info("retired", nil)
}

// WaitForLoaded blocks until the definition is AVAILABLE, the timeout
// elapses, or the state advances past AVAILABLE while waiting. On
// success it returns a scoped UnloadGuard that must be released exactly
// once. This is the full semantics spec.md §9's Open Question directs
// implementers to build, in place of the source's commented-out stub.
func (d *Definition) WaitForLoaded(ctx context.Context, timeout time.Duration) (UnloadGuard, *Error) {
	deadline := time.Now().Add(timeout)

	d.mu.Lock()
	defer d.mu.Unlock()

	for d.state != StateAvailable {
		if d.state == StateRetired {
			return nil, newError(CodeModelVersionNotLoadedAnymore, "definition was retired while waiting", "pipeline %q", d.name)
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, newError(CodeModelVersionNotLoadedYet, "timed out waiting for definition to become available", "pipeline %q", d.name)
		}
		waitOnCond(d.cond, remaining)
	}

	d.usage++
	return &guard{def: d}, nil
}

func (d *Definition) releaseUsage() {
	d.mu.Lock()
	d.usage--
	d.mu.Unlock()
	d.cond.Broadcast()
}

// snapshot returns the current node/connection records under lock, for
// use by the Instantiator and Metadata Query while a guard is held.
func (d *Definition) snapshot() ([]NodeInfo, Connections) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodes, d.connections
}

// waitOnCond wakes the waiter after at most timeout even without a
// Broadcast, so WaitForLoaded's deadline is honored under sync.Cond,
// which has no built-in timed wait.
func waitOnCond(cond *sync.Cond, timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}
