// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds passwords and private keys outside the Go heap.
//
// A [Buffer] is an anonymous mmap region, locked into RAM and excluded
// from core dumps. Close zeroes and unmaps it. The console keeps the
// age identity that opens a sealed password, and the opened password
// itself, in Buffers; the password leaves the buffer only as the string
// the connect request needs.
package secret
