// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build of the uaconsole binary.
//
// [Version] and [GitCommit] may be set with -ldflags -X. When they are
// not, the commit and dirty flag come from the VCS stamp the Go
// toolchain embeds in the binary, and [Info] falls back to
// "0.1.0-dev (unknown)" for builds without one (go run, tests).
package version
