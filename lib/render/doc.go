// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns structured values into indented text.
//
// A structured value read from the server is an [ua.ExtensionObject]
// whose fields are positional. Its meaning comes from the
// [ua.StructureDefinition] of the same name in the session's
// [ua.Dictionary]. [Build] walks value and schema together once and
// produces a [Node] tree whose every field is tagged with its shape:
// scalar, structure, array of scalars, or array of structures. [Render]
// then walks the tree without looking at the schema again.
//
// Output layout, with a two-space indent unit:
//
//	WorkOrderType
//	  ID = WO-1001
//	  Asset
//	    Name = Boiler1
//	  Readings
//	    Double[0]: 1.5
//	    Double[1]: 2.5
//	  StatusComments
//	    WorkOrderStatusType[0]
//	      Actor = operator
//
// Elements of a structure array are rendered two levels below the
// field name: one level for the "Type[i]" entry line and one for the
// element's body. Tools that diff console output depend on this layout.
//
// Both functions are pure. Recursion is bounded by [MaxDepth]; a
// schema or value nested deeper than that (which only a malformed or
// cyclic definition can produce) yields [ErrDepthExceeded].
package render
