// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ua defines the value types of the remote address space: node
// identifiers, status codes, self-describing variants, timestamped data
// values, structures and the dictionary of structure definitions that
// describes them, and namespace tables.
//
// The types are plain data. They carry CBOR encodings so they can cross
// the collaborator socket unchanged, and text forms matching the
// conventional notation ("ns=2;s=Demo.Static.Scalar.Double",
// "BadNodeIdUnknown") so they can appear in configuration files and
// console output.
//
// A [Variant] is tagged with its [TypeID] and an array flag. Decoding a
// variant from CBOR restores the concrete Go type for the tag (int32,
// float64, [NodeID], *[ExtensionObject], and so on) instead of the
// generic numbers a schemaless decode would produce, so consumers can
// type-switch on Value.
package ua
