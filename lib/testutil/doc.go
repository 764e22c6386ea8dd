// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the package tests.
//
// [SocketDir] returns a short directory under /tmp for Unix sockets,
// since sun_path is limited to 108 bytes and t.TempDir() paths nest
// deeply. [RequireReceive] bounds a channel receive with a timeout so
// a missing notification fails the test instead of hanging it.
package testutil
