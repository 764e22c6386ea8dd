// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Connection.UserName != "john" || cfg.Connection.Password != "master" {
		t.Errorf("expected demo user john/master, got %s/%s", cfg.Connection.UserName, cfg.Connection.Password)
	}
	if len(cfg.Nodes.History) != 4 {
		t.Errorf("expected 4 history nodes, got %d", len(cfg.Nodes.History))
	}
	if cfg.Subscription.AlarmSource != "Boiler1" {
		t.Errorf("expected alarm_source=Boiler1, got %s", cfg.Subscription.AlarmSource)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_WithoutVariableUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Connection.SocketPath != "/run/user/1000/uaconsole/demo.sock" {
		t.Errorf("expected expanded socket path, got %s", cfg.Connection.SocketPath)
	}
}

func TestLoad_WithVariable(t *testing.T) {
	path := writeConfig(t, "uaconsole.yaml", `
connection:
  socket_path: /test/demo.sock
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Connection.SocketPath != "/test/demo.sock" {
		t.Errorf("expected socket_path=/test/demo.sock, got %s", cfg.Connection.SocketPath)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Connection.UserName != "john" {
		t.Errorf("expected default user_name=john, got %s", cfg.Connection.UserName)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeConfig(t, "uaconsole.yaml", `
connection:
  socket_path: /custom/demo.sock
  user_name: operator
namespaces:
  - urn:custom
nodes:
  read:
    - ns=1;s=Pump.Speed
  write:
    - node: ns=1;s=Pump.SetPoint
      value: 12.5
subscription:
  publishing_interval: 250ms
  alarm_source: ""
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Connection.UserName != "operator" {
		t.Errorf("expected user_name=operator, got %s", cfg.Connection.UserName)
	}
	if len(cfg.Nodes.Read) != 1 || cfg.Nodes.Read[0] != "ns=1;s=Pump.Speed" {
		t.Errorf("expected a single read node, got %v", cfg.Nodes.Read)
	}
	if len(cfg.Nodes.Write) != 1 || cfg.Nodes.Write[0].Value != 12.5 {
		t.Errorf("expected write value 12.5, got %+v", cfg.Nodes.Write)
	}
	if cfg.Subscription.AlarmSource != "" {
		t.Errorf("expected empty alarm_source, got %q", cfg.Subscription.AlarmSource)
	}
	if Duration(cfg.Subscription.PublishingInterval) != 250*time.Millisecond {
		t.Errorf("expected 250ms publishing interval, got %s", cfg.Subscription.PublishingInterval)
	}
	table := cfg.NamespaceTable()
	if len(table) != 2 || table[0] != ua.NamespaceStandard || table[1] != "urn:custom" {
		t.Errorf("unexpected namespace table %v", table)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "uaconsole.jsonc", `{
  // The demo server on a custom socket.
  "connection": {
    "socket_path": "/jsonc/demo.sock",
    "user_name": "jane",
  },
  "method": {
    "arguments": [3, 4], /* Multiply */
  },
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Connection.SocketPath != "/jsonc/demo.sock" {
		t.Errorf("expected socket_path=/jsonc/demo.sock, got %s", cfg.Connection.SocketPath)
	}
	if cfg.Connection.UserName != "jane" {
		t.Errorf("expected user_name=jane, got %s", cfg.Connection.UserName)
	}
	if len(cfg.Method.Arguments) != 2 || cfg.Method.Arguments[0] != 3 || cfg.Method.Arguments[1] != 4 {
		t.Errorf("expected arguments [3 4], got %v", cfg.Method.Arguments)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("UACONSOLE_SOCKET_PATH", "/env/demo.sock")
	path := writeConfig(t, "uaconsole.yaml", `
connection:
  socket_path: /file/demo.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Connection.SocketPath != "/file/demo.sock" {
		t.Errorf("expected socket_path=/file/demo.sock from file, got %s", cfg.Connection.SocketPath)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("UACONSOLE_TEST_HOME", "/home/user")
	t.Setenv("UACONSOLE_TEST_PRESENT", "value")
	t.Setenv("UACONSOLE_TEST_EMPTY", "")

	tests := []struct {
		input    string
		expected string
	}{
		{"${UACONSOLE_TEST_HOME}/history.db", "/home/user/history.db"},
		{"${UACONSOLE_TEST_MISSING:-default}", "default"},
		{"${UACONSOLE_TEST_EMPTY:-default}", "default"},
		{"${UACONSOLE_TEST_PRESENT:-default}", "value"},
		{"${UACONSOLE_TEST_MISSING:-${UACONSOLE_TEST_HOME}/.local}/x", "/home/user/.local/x"},
		{"${UACONSOLE_TEST_HOME}/${UACONSOLE_TEST_PRESENT}", "/home/user/value"},
		{"${UACONSOLE_TEST_MISSING}", ""},
		{"no variables here", "no variables here"},
	}

	for _, tt := range tests {
		result := expandVars(tt.input)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty socket path",
			modify:  func(c *Config) { c.Connection.SocketPath = "" },
			wantErr: "connection.socket_path is required",
		},
		{
			name:    "sealed password without key file",
			modify:  func(c *Config) { c.Connection.PasswordSealed = "YWdl" },
			wantErr: "connection.key_file is required",
		},
		{
			name:    "malformed node id",
			modify:  func(c *Config) { c.Nodes.Read = append(c.Nodes.Read, "ns=1;x=bad") },
			wantErr: "nodes.read[5]",
		},
		{
			name:    "malformed index range",
			modify:  func(c *Config) { c.Nodes.IndexRange = "3:1" },
			wantErr: "nodes.index_range",
		},
		{
			name:    "bad publishing interval",
			modify:  func(c *Config) { c.Subscription.PublishingInterval = "fast" },
			wantErr: "subscription.publishing_interval",
		},
		{
			name:    "lifetime shorter than three keep-alives",
			modify:  func(c *Config) { c.Subscription.LifetimeCount = 20 },
			wantErr: "subscription.lifetime_count",
		},
		{
			name:    "empty namespace",
			modify:  func(c *Config) { c.Namespaces = []string{""} },
			wantErr: "namespaces[0] is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Connection.SocketPath = ""
	cfg.Nodes.Browse = "garbage"
	cfg.Subscription.KeepAliveCount = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"connection.socket_path", "nodes.browse", "keep_alive_count"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
