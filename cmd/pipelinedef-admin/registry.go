package main

import "github.com/kbukum/pipelinedef/definition"

// staticModelRegistry is a placeholder definition.ModelRegistry with no
// models. The real registry lives in the model-serving backend this
// subsystem is deployed alongside; wiring it in is an integration step
// for that deployment, not something this control-plane binary owns.
type staticModelRegistry struct{}

func newStaticModelRegistry() *staticModelRegistry { return &staticModelRegistry{} }

func (r *staticModelRegistry) FindModelByName(_ string) (definition.Model, bool) {
	return nil, false
}

var _ definition.ModelRegistry = (*staticModelRegistry)(nil)
