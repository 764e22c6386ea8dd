// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// reference is a forward reference from the owning node.
type reference struct {
	referenceType ua.NodeID
	target        ua.NodeID
}

// methodFunc implements a method node. It returns the output arguments
// or a bad status.
type methodFunc func(call methodCall) ([]ua.Variant, ua.StatusCode)

// methodCall carries the context of one method invocation.
type methodCall struct {
	session   *session
	object    ua.NodeID
	arguments []ua.Variant
}

// node is one node of the address space.
type node struct {
	id             ua.NodeID
	class          ua.NodeClass
	browseName     ua.QualifiedName
	displayName    ua.LocalizedText
	typeDefinition ua.NodeID

	// Variables.
	value    ua.DataValue
	writable bool
	// dynamic computes the value on every read instead of value.
	dynamic func(now time.Time) ua.Variant
	// historizing variables record every value change in the history
	// store.
	historizing bool

	// Objects.
	eventNotifier bool

	// Methods.
	method methodFunc

	references []reference
	// inverse holds the source of every reference pointing here.
	inverse []reference
}

// addressSpace is the node store of the simulator. It is safe for
// concurrent use.
type addressSpace struct {
	mu    sync.RWMutex
	nodes map[ua.NodeID]*node

	// subtypes maps a reference or event type to its direct supertype.
	supertypes map[ua.NodeID]ua.NodeID
}

func newAddressSpace() *addressSpace {
	return &addressSpace{
		nodes:      make(map[ua.NodeID]*node),
		supertypes: make(map[ua.NodeID]ua.NodeID),
	}
}

// add inserts n. A parent reference is added when parent is not null.
func (space *addressSpace) add(parent ua.NodeID, referenceType ua.NodeID, n *node) *node {
	space.mu.Lock()
	defer space.mu.Unlock()
	space.nodes[n.id] = n
	if !parent.IsNull() {
		space.linkLocked(parent, referenceType, n.id)
	}
	return n
}

func (space *addressSpace) link(source, referenceType, target ua.NodeID) {
	space.mu.Lock()
	defer space.mu.Unlock()
	space.linkLocked(source, referenceType, target)
}

func (space *addressSpace) linkLocked(source, referenceType, target ua.NodeID) {
	if from, ok := space.nodes[source]; ok {
		from.references = append(from.references, reference{referenceType: referenceType, target: target})
	}
	if to, ok := space.nodes[target]; ok {
		to.inverse = append(to.inverse, reference{referenceType: referenceType, target: source})
	}
}

// defineSubtype records that subtype derives from supertype.
func (space *addressSpace) defineSubtype(subtype, supertype ua.NodeID) {
	space.mu.Lock()
	defer space.mu.Unlock()
	space.supertypes[subtype] = supertype
}

// isSubtype reports whether candidate is base or derives from it.
func (space *addressSpace) isSubtype(candidate, base ua.NodeID) bool {
	space.mu.RLock()
	defer space.mu.RUnlock()
	for range 32 {
		if candidate == base {
			return true
		}
		parent, ok := space.supertypes[candidate]
		if !ok {
			return false
		}
		candidate = parent
	}
	return false
}

func (space *addressSpace) lookup(id ua.NodeID) (*node, bool) {
	space.mu.RLock()
	defer space.mu.RUnlock()
	n, ok := space.nodes[id]
	return n, ok
}

// browse returns the references of id matching the request, in
// insertion order.
func (space *addressSpace) browse(request remote.BrowseRequest) ([]remote.ReferenceDescription, ua.StatusCode) {
	space.mu.RLock()
	defer space.mu.RUnlock()

	n, ok := space.nodes[request.NodeID]
	if !ok {
		return nil, ua.StatusBadNodeIDUnknown
	}

	var results []remote.ReferenceDescription
	collect := func(references []reference, forward bool) {
		for _, ref := range references {
			if !space.referenceMatchesLocked(ref.referenceType, request) {
				continue
			}
			target, ok := space.nodes[ref.target]
			if !ok {
				continue
			}
			results = append(results, remote.ReferenceDescription{
				ReferenceType: ref.referenceType,
				IsForward:     forward,
				NodeID:        target.id,
				BrowseName:    target.browseName,
				DisplayName:   target.displayName,
				NodeClass:     target.class,
			})
		}
	}
	if request.Direction == remote.BrowseForward || request.Direction == remote.BrowseBoth {
		collect(n.references, true)
	}
	if request.Direction == remote.BrowseInverse || request.Direction == remote.BrowseBoth {
		collect(n.inverse, false)
	}
	return results, ua.StatusGood
}

func (space *addressSpace) referenceMatchesLocked(referenceType ua.NodeID, request remote.BrowseRequest) bool {
	if request.ReferenceType.IsNull() || request.ReferenceType == referenceType {
		return true
	}
	if !request.IncludeSubtypes {
		return false
	}
	candidate := referenceType
	for range 32 {
		parent, ok := space.supertypes[candidate]
		if !ok {
			return false
		}
		if parent == request.ReferenceType {
			return true
		}
		candidate = parent
	}
	return false
}

// translate follows path from its start node by browse name over
// hierarchical references.
func (space *addressSpace) translate(path remote.BrowsePath) remote.BrowsePathResult {
	space.mu.RLock()
	defer space.mu.RUnlock()

	if _, ok := space.nodes[path.StartNode]; !ok {
		return remote.BrowsePathResult{Status: ua.StatusBadNodeIDUnknown}
	}
	if len(path.Elements) == 0 {
		return remote.BrowsePathResult{Status: ua.StatusBadNothingToDo}
	}

	current := []ua.NodeID{path.StartNode}
	for _, element := range path.Elements {
		var next []ua.NodeID
		for _, id := range current {
			for _, ref := range space.nodes[id].references {
				target, ok := space.nodes[ref.target]
				if ok && target.browseName == element && !slices.Contains(next, target.id) {
					next = append(next, target.id)
				}
			}
		}
		if len(next) == 0 {
			return remote.BrowsePathResult{Status: ua.StatusBadNoMatch}
		}
		current = next
	}
	return remote.BrowsePathResult{Targets: current}
}

// read reads one attribute.
func (space *addressSpace) read(request remote.ReadValueID, now time.Time) ua.DataValue {
	space.mu.RLock()
	defer space.mu.RUnlock()

	n, ok := space.nodes[request.NodeID]
	if !ok {
		return ua.DataValue{Status: ua.StatusBadNodeIDUnknown, ServerTimestamp: now}
	}

	var value ua.Variant
	switch request.Attribute {
	case ua.AttributeNodeID:
		value = ua.NewVariant(n.id)
	case ua.AttributeNodeClass:
		value = ua.NewVariant(int32(n.class))
	case ua.AttributeBrowseName:
		value = ua.NewVariant(n.browseName)
	case ua.AttributeDisplayName:
		value = ua.NewVariant(n.displayName)
	case ua.AttributeValue:
		if n.class != ua.NodeClassVariable {
			return ua.DataValue{Status: ua.StatusBadAttributeIDInvalid, ServerTimestamp: now}
		}
		result := n.value
		if n.dynamic != nil {
			result = ua.DataValue{Value: n.dynamic(now), SourceTimestamp: now}
		}
		result.ServerTimestamp = now
		if request.IndexRange != "" {
			sliced, status := sliceVariant(result.Value, request.IndexRange)
			if status.IsBad() {
				return ua.DataValue{Status: status, ServerTimestamp: now}
			}
			result.Value = sliced
		}
		return result
	default:
		return ua.DataValue{Status: ua.StatusBadAttributeIDInvalid, ServerTimestamp: now}
	}
	return ua.DataValue{Value: value, ServerTimestamp: now}
}

// write writes the value attribute. It returns the new value when the
// write changed a historizing variable.
func (space *addressSpace) write(request remote.WriteValue, now time.Time) (ua.StatusCode, *ua.DataValue) {
	space.mu.Lock()
	defer space.mu.Unlock()

	n, ok := space.nodes[request.NodeID]
	if !ok {
		return ua.StatusBadNodeIDUnknown, nil
	}
	if request.Attribute != ua.AttributeValue || n.class != ua.NodeClassVariable {
		return ua.StatusBadAttributeIDInvalid, nil
	}
	if !n.writable {
		return ua.StatusBadNotWritable, nil
	}

	incoming := request.Value.Value
	current := n.value.Value
	if request.IndexRange != "" {
		merged, status := spliceVariant(current, incoming, request.IndexRange)
		if status.IsBad() {
			return status, nil
		}
		incoming = merged
	} else if !sameType(current, incoming) {
		return ua.StatusBadTypeMismatch, nil
	}

	n.value = ua.DataValue{
		Value:           incoming,
		SourceTimestamp: now,
		ServerTimestamp: now,
	}
	if n.historizing {
		recorded := n.value
		return ua.StatusGood, &recorded
	}
	return ua.StatusGood, nil
}

// setValue replaces a variable's value from the simulation.
func (space *addressSpace) setValue(id ua.NodeID, value ua.Variant, now time.Time) (historizing bool) {
	space.mu.Lock()
	defer space.mu.Unlock()
	n, ok := space.nodes[id]
	if !ok {
		return false
	}
	n.value = ua.DataValue{Value: value, SourceTimestamp: now, ServerTimestamp: now}
	return n.historizing
}

// sameType reports whether incoming may replace current: same type tag
// and shape, and for structures the same structure type. A null
// current value accepts anything.
func sameType(current, incoming ua.Variant) bool {
	if current.IsNull() {
		return true
	}
	if incoming.Type != current.Type || incoming.Array != current.Array {
		return false
	}
	currentObject, isObject := current.ExtensionObject()
	if !isObject {
		return true
	}
	incomingObject, _ := incoming.ExtensionObject()
	return incomingObject != nil && incomingObject.TypeName == currentObject.TypeName
}
