package definition

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NodeKind identifies the role a node plays in a pipeline graph.
type NodeKind int

const (
	// KindUnknown marks a node whose kind token failed to parse.
	KindUnknown NodeKind = iota
	// KindEntry adapts the incoming request into named outputs.
	KindEntry
	// KindDL wraps a single versioned model invocation.
	KindDL
	// KindExit adapts named inputs into the outgoing response.
	KindExit
)

func (k NodeKind) String() string {
	switch k {
	case KindEntry:
		return "ENTRY"
	case KindDL:
		return "DL"
	case KindExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// dlModelKindToken is the only recognized configuration string for a DL node.
const dlModelKindToken = "DL model"

// ParseNodeKind maps a configuration token to a NodeKind. Unknown tokens
// return KindUnknown, and validateNodes is expected to surface
// CodeNodeWrongKindConfiguration for it.
func ParseNodeKind(token string) NodeKind {
	switch token {
	case "ENTRY":
		return KindEntry
	case "EXIT":
		return KindExit
	case dlModelKindToken:
		return KindDL
	default:
		return KindUnknown
	}
}

// token returns the wire vocabulary string for k, or "" for KindUnknown.
func (k NodeKind) token() string {
	switch k {
	case KindEntry:
		return "ENTRY"
	case KindExit:
		return "EXIT"
	case KindDL:
		return dlModelKindToken
	default:
		return ""
	}
}

// MarshalJSON encodes a NodeKind as its spec.md §6 configuration token
// rather than its underlying int value.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.token())
}

// UnmarshalJSON decodes a spec.md §6 configuration token into a NodeKind.
// An unrecognized token decodes to KindUnknown rather than failing the
// unmarshal itself; validateNodes is the authoritative place that rejects
// it with CodeNodeWrongKindConfiguration, consistent with every other
// graph-shape problem being a validation-time error rather than a
// decode-time one.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("node kind: %w", err)
	}
	*k = ParseNodeKind(token)
	return nil
}

// NodeInfo is an immutable descriptor of one declared graph node.
type NodeInfo struct {
	// NodeName is unique within the definition.
	NodeName string
	// Kind is one of {ENTRY, DL, EXIT}.
	Kind NodeKind
	// ModelName is populated only when Kind == KindDL.
	ModelName string
	// ModelVersion is the explicit version, or nil to mean "default version".
	ModelVersion *uint64
	// OutputNameAliases maps an external alias to the underlying tensor name
	// this node is declared to publish. For DL nodes these rename model
	// outputs; for ENTRY nodes these are the permitted request-tensor names.
	OutputNameAliases map[string]string
}

// resolvedVersion returns the version used for registry lookups, with the
// "default version" sentinel (0) standing in for an absent ModelVersion.
func (n NodeInfo) resolvedVersion() uint64 {
	if n.ModelVersion == nil {
		return 0
	}
	return *n.ModelVersion
}

// EdgeMapping is a set of (alias, realName) pairs carried by one edge.
// alias names an output published by the dependency; realName names the
// input consumed by the dependant.
type EdgeMapping map[string]string

// Connections is keyed by dependant node name; each value maps a
// dependency node name to the edge mapping carried from that dependency.
type Connections map[string]map[string]EdgeMapping

// dependantNames returns connection target names in deterministic
// (sorted) order so that validation and traversal are reproducible
// across runs, per spec.md's determinism requirement on map iteration.
func (c Connections) dependantNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dependencyNames returns, for one dependant's dependency map, the
// dependency node names in deterministic (sorted) order.
func dependencyNames(deps map[string]EdgeMapping) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
