// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

// NamespaceStandard is the URI of namespace 0.
const NamespaceStandard = "http://opcfoundation.org/UA/"

// NamespaceTable lists namespace URIs by index. Index 0 is always the
// base namespace.
type NamespaceTable []string

// Index returns the index of uri in the table.
func (table NamespaceTable) Index(uri string) (uint16, bool) {
	for i, candidate := range table {
		if candidate == uri {
			return uint16(i), true
		}
	}
	return 0, false
}

// MapNodeID rewrites id's namespace index, which is relative to from,
// into the equivalent index in to. Namespace 0 always maps to itself.
// When the index is out of range in from, or the URI is absent from
// to, MapNodeID returns id unchanged and false.
func MapNodeID(id NodeID, from, to NamespaceTable) (NodeID, bool) {
	if id.Namespace == 0 {
		return id, true
	}
	if int(id.Namespace) >= len(from) {
		return id, false
	}
	index, ok := to.Index(from[id.Namespace])
	if !ok {
		return id, false
	}
	id.Namespace = index
	return id, true
}
