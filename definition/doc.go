// Package definition implements the pipeline definition subsystem: the
// declarative graph of request-entry, model-invocation, and response-exit
// nodes that composes several model invocations into one logical model.
//
// A Definition owns a validated NodeInfo/Connections graph, subscribes to
// the model-catalog entries its DL nodes depend on, and materializes
// short-lived ExecutablePipeline instances on demand via Create. It does
// not own tensors, model weights, or request threads; those belong to the
// model registry and the caller.
package definition
