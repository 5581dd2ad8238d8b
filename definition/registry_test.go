package definition

import (
	"context"
	"errors"
	"time"
)

// --- test doubles ---

type fakeGuard struct{ released *int }

func (g *fakeGuard) Release() {
	if g.released != nil {
		*g.released++
	}
}

type fakeInstance struct {
	inputs    map[string]TensorInfo
	outputs   map[string]TensorInfo
	cfg       ModelConfig
	loadErr   error
	loaded    bool
	subs      map[string]bool
	guardHits *int
}

func newFakeInstance(inputs, outputs map[string]TensorInfo) *fakeInstance {
	return &fakeInstance{
		inputs:  inputs,
		outputs: outputs,
		loaded:  true,
		subs:    make(map[string]bool),
	}
}

func (i *fakeInstance) Subscribe(subscriber string)   { i.subs[subscriber] = true }
func (i *fakeInstance) Unsubscribe(subscriber string) { delete(i.subs, subscriber) }

func (i *fakeInstance) WaitForLoaded(_ context.Context, _ time.Duration) (UnloadGuard, error) {
	if i.loadErr != nil {
		return nil, i.loadErr
	}
	if !i.loaded {
		return nil, errors.New("not loaded")
	}
	return &fakeGuard{released: i.guardHits}, nil
}

func (i *fakeInstance) GetInputsInfo() map[string]TensorInfo  { return i.inputs }
func (i *fakeInstance) GetOutputsInfo() map[string]TensorInfo { return i.outputs }
func (i *fakeInstance) GetModelConfig() ModelConfig           { return i.cfg }

type fakeModel struct {
	versions map[uint64]*fakeInstance
	subs     map[string]bool
}

func newFakeModel() *fakeModel {
	return &fakeModel{versions: make(map[uint64]*fakeInstance), subs: make(map[string]bool)}
}

func (m *fakeModel) GetModelInstanceByVersion(version uint64) (Instance, error) {
	return m.FindModelInstance("", version)
}

func (m *fakeModel) FindModelInstance(_ string, version uint64) (Instance, error) {
	inst, ok := m.versions[version]
	if !ok {
		return nil, errors.New("version not found")
	}
	return inst, nil
}

func (m *fakeModel) Subscribe(subscriber string)   { m.subs[subscriber] = true }
func (m *fakeModel) Unsubscribe(subscriber string) { delete(m.subs, subscriber) }

type fakeRegistry struct {
	models map[string]*fakeModel
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{models: make(map[string]*fakeModel)}
}

func (r *fakeRegistry) FindModelByName(name string) (Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

func (r *fakeRegistry) addModel(name string, versions map[uint64]*fakeInstance) *fakeModel {
	m := newFakeModel()
	for v, inst := range versions {
		m.versions[v] = inst
	}
	r.models[name] = m
	return m
}

var _ ModelRegistry = (*fakeRegistry)(nil)
var _ Model = (*fakeModel)(nil)
var _ Instance = (*fakeInstance)(nil)
