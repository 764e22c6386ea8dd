// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "UACONSOLE_CONFIG"

// Config is the console configuration.
type Config struct {
	// Connection configures how the console reaches the server.
	Connection ConnectionConfig `yaml:"connection"`

	// Namespaces lists the namespace URIs that the node ids in this file
	// are relative to, starting at index 1. Index 0 is always the
	// standard namespace. After connect, node ids are remapped against
	// the server's namespace array.
	Namespaces []string `yaml:"namespaces"`

	// Nodes names the nodes each console operation works on.
	Nodes NodesConfig `yaml:"nodes"`

	// Method is the method the call operation invokes.
	Method MethodConfig `yaml:"method"`

	// Subscription configures subscriptions and alarm monitoring.
	Subscription SubscriptionConfig `yaml:"subscription"`

	// Serve configures the demo server started by "uaconsole serve".
	Serve ServeConfig `yaml:"serve"`
}

// ConnectionConfig configures the connection and user identity.
type ConnectionConfig struct {
	// SocketPath is the server's socket.
	SocketPath string `yaml:"socket_path"`

	// DiscoveryURL is passed to FindServers.
	DiscoveryURL string `yaml:"discovery_url"`

	// UserName and Password are the credentials of the user identity.
	// A username connect needs one of Password or PasswordSealed.
	UserName string `yaml:"user_name"`
	Password string `yaml:"password"`

	// PasswordSealed is the password encrypted with "uaconsole
	// seal-password". It is opened with the identity in KeyFile and
	// takes precedence over Password.
	PasswordSealed string `yaml:"password_sealed"`
	KeyFile        string `yaml:"key_file"`

	// Timeout bounds each request. Zero means no bound beyond the
	// transport's own.
	Timeout string `yaml:"timeout"`
}

// WriteValue is a Double value written by the write operations.
type WriteValue struct {
	Node  string  `yaml:"node"`
	Value float64 `yaml:"value"`
}

// NodesConfig names the nodes of the console operations. Node ids use
// the text form "ns=1;s=Demo.Static.Scalar.Double".
type NodesConfig struct {
	Read             []string     `yaml:"read"`
	ReadIndexRange   []string     `yaml:"read_index_range"`
	IndexRange       string       `yaml:"index_range"`
	Write            []WriteValue `yaml:"write"`
	WriteIndexRange  string       `yaml:"write_index_range"`
	Structure        string       `yaml:"structure"`
	Browse           string       `yaml:"browse"`
	History          []string     `yaml:"history"`
	HistoryNotifiers []string     `yaml:"history_notifiers"`
	HistoryStart     string       `yaml:"history_start"`
	EventNotifier    string       `yaml:"event_notifier"`
	EventType        string       `yaml:"event_type"`
	TranslateStart   string       `yaml:"translate_start"`
	TranslatePath    string       `yaml:"translate_path"`
}

// MethodConfig describes a method call with Double arguments.
type MethodConfig struct {
	Object    string    `yaml:"object"`
	Method    string    `yaml:"method"`
	Arguments []float64 `yaml:"arguments"`
}

// SubscriptionConfig configures subscriptions.
type SubscriptionConfig struct {
	PublishingInterval string `yaml:"publishing_interval"`
	LifetimeCount      uint32 `yaml:"lifetime_count"`
	KeepAliveCount     uint32 `yaml:"keep_alive_count"`

	// AlarmSource restricts the alarm subscription to conditions whose
	// SourceName matches. Empty subscribes to all conditions.
	AlarmSource string `yaml:"alarm_source"`
}

// ServeConfig configures the demo server.
type ServeConfig struct {
	HistoryPath        string `yaml:"history_path"`
	SimulationInterval string `yaml:"simulation_interval"`
}

// Default returns the configuration of the demo setup: the console and
// the demo server on a socket under the runtime directory.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			SocketPath:   "${XDG_RUNTIME_DIR:-/tmp}/uaconsole/demo.sock",
			DiscoveryURL: "unix://${XDG_RUNTIME_DIR:-/tmp}/uaconsole/demo.sock",
			UserName:     "john",
			Password:     "master",
			Timeout:      "10s",
		},
		Namespaces: []string{"http://www.unifiedautomation.com/DemoServer/"},
		Nodes: NodesConfig{
			Read: []string{
				"i=2258",
				"ns=1;s=Demo.Static.Scalar.Boolean",
				"ns=1;s=Demo.Static.Scalar.Double",
				"ns=1;s=Demo.Dynamic.Scalar.Double",
				"ns=1;s=Demo.Static.Scalar.WorkOrder",
			},
			ReadIndexRange: []string{
				"ns=1;s=Demo.Static.Arrays.Boolean",
				"ns=1;s=Demo.Static.Arrays.Double",
				"ns=1;s=Demo.Dynamic.Arrays.Double",
			},
			IndexRange: "1:3",
			Write: []WriteValue{
				{Node: "ns=1;s=Demo.Static.Scalar.Double", Value: 20.0},
			},
			WriteIndexRange: "0:1",
			Structure:       "ns=1;s=Demo.Static.Scalar.WorkOrder",
			Browse:          "ns=1;s=Demo.Massfolder_Static",
			History: []string{
				"ns=1;s=Demo.History.ByteWithHistory",
				"ns=1;s=Demo.History.DoubleWithHistory",
				"ns=1;s=Demo.History.Historian_1",
				"ns=1;s=Demo.History.Historian_2",
			},
			HistoryNotifiers: []string{"ns=1;s=Demo.History.NotifierWithHistory"},
			HistoryStart:     "24h",
			EventNotifier:    "i=2253",
			EventType:        "ns=1;i=1005",
			TranslateStart:   "ns=1;s=Demo.BoilerDemo.Boiler1",
			TranslatePath:    "1:FillLevelSetPoint",
		},
		Method: MethodConfig{
			Object:    "ns=1;s=Demo.Method",
			Method:    "ns=1;s=Demo.Method.Multiply",
			Arguments: []float64{10.0, 20.0},
		},
		Subscription: SubscriptionConfig{
			PublishingInterval: "100ms",
			LifetimeCount:      100,
			KeepAliveCount:     10,
			AlarmSource:        "Boiler1",
		},
		Serve: ServeConfig{
			HistoryPath:        "${XDG_STATE_HOME:-${HOME}/.local/state}/uaconsole/history.db",
			SimulationInterval: "1s",
		},
	}
}

// Load loads configuration from the file named by UACONSOLE_CONFIG. When
// the variable is unset the defaults are returned.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults. Files ending
// in .json or .jsonc are JSON with comments and trailing commas; any
// other file is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the stripped document decodes
		// through the same struct tags.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Connection.SocketPath = expandVars(c.Connection.SocketPath)
	c.Connection.DiscoveryURL = expandVars(c.Connection.DiscoveryURL)
	c.Connection.KeyFile = expandVars(c.Connection.KeyFile)
	c.Serve.HistoryPath = expandVars(c.Serve.HistoryPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-((?:[^{}]|\$\{[^}]*\})*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. The default may itself
// hold one level of ${VAR}.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) < 3 || parts[2] == "" {
			return ""
		}
		return expandVars(parts[2])
	})
}

// Validate checks the configuration for errors. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Connection.SocketPath == "" {
		errs = append(errs, errors.New("connection.socket_path is required"))
	}
	if c.Connection.PasswordSealed != "" && c.Connection.KeyFile == "" {
		errs = append(errs, errors.New("connection.key_file is required with connection.password_sealed"))
	}
	errs = append(errs, checkDuration("connection.timeout", c.Connection.Timeout, true))

	for i, uri := range c.Namespaces {
		if uri == "" {
			errs = append(errs, fmt.Errorf("namespaces[%d] is empty", i))
		}
	}

	errs = append(errs, c.checkNodes()...)

	if _, err := ua.ParseIndexRange(c.Nodes.IndexRange); err != nil {
		errs = append(errs, fmt.Errorf("nodes.index_range: %w", err))
	}
	if _, err := ua.ParseIndexRange(c.Nodes.WriteIndexRange); err != nil {
		errs = append(errs, fmt.Errorf("nodes.write_index_range: %w", err))
	}
	errs = append(errs, checkDuration("nodes.history_start", c.Nodes.HistoryStart, false))
	if c.Nodes.TranslatePath == "" {
		errs = append(errs, errors.New("nodes.translate_path is required"))
	}

	errs = append(errs, checkDuration("subscription.publishing_interval", c.Subscription.PublishingInterval, false))
	if c.Subscription.KeepAliveCount == 0 {
		errs = append(errs, errors.New("subscription.keep_alive_count must be positive"))
	}
	if c.Subscription.LifetimeCount < 3*c.Subscription.KeepAliveCount {
		errs = append(errs, fmt.Errorf("subscription.lifetime_count must be at least three times keep_alive_count (%d)",
			3*c.Subscription.KeepAliveCount))
	}

	errs = append(errs, checkDuration("serve.simulation_interval", c.Serve.SimulationInterval, true))

	return errors.Join(errs...)
}

// checkNodes parses every node id field.
func (c *Config) checkNodes() []error {
	var errs []error
	check := func(field, text string) {
		if _, err := ua.ParseNodeID(text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	checkList := func(field string, texts []string) {
		for i, text := range texts {
			check(fmt.Sprintf("%s[%d]", field, i), text)
		}
	}

	checkList("nodes.read", c.Nodes.Read)
	checkList("nodes.read_index_range", c.Nodes.ReadIndexRange)
	for i, write := range c.Nodes.Write {
		check(fmt.Sprintf("nodes.write[%d].node", i), write.Node)
	}
	check("nodes.structure", c.Nodes.Structure)
	check("nodes.browse", c.Nodes.Browse)
	checkList("nodes.history", c.Nodes.History)
	checkList("nodes.history_notifiers", c.Nodes.HistoryNotifiers)
	check("nodes.event_notifier", c.Nodes.EventNotifier)
	check("nodes.event_type", c.Nodes.EventType)
	check("nodes.translate_start", c.Nodes.TranslateStart)
	check("method.object", c.Method.Object)
	check("method.method", c.Method.Method)
	return errs
}

func checkDuration(field, text string, optional bool) error {
	if text == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	if d, err := time.ParseDuration(text); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	} else if d < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

// NamespaceTable returns the namespace table the configured node ids are
// relative to.
func (c *Config) NamespaceTable() ua.NamespaceTable {
	return append(ua.NamespaceTable{ua.NamespaceStandard}, c.Namespaces...)
}

// Duration parses a duration field that Validate accepted. An empty
// field is zero.
func Duration(text string) time.Duration {
	d, _ := time.ParseDuration(text)
	return d
}
