// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the console configuration.
//
// The file is named by the --config flag (via [LoadFile]) or the
// UACONSOLE_CONFIG environment variable (via [Load]). YAML is the
// default format; files ending in .json or .jsonc are read as JSON
// with comments. Values in the file override [Default], which carries
// the settings of the bundled demo server.
//
// Node ids are written in text form relative to [Config].Namespaces
// (index 0 is always the standard namespace). The console remaps them
// against the server's namespace array after it connects.
//
// Path fields expand ${VAR} and ${VAR:-default}. No other environment
// variables override config values.
package config
