// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// writeTarget is a node and the Double written to it.
type writeTarget struct {
	node  ua.NodeID
	value float64
}

// nodeSet holds the node ids the operations work on, parsed from the
// configuration. Ids are relative to the configuration's namespace
// table until remapped against a server.
type nodeSet struct {
	read             []ua.NodeID
	readIndexRange   []ua.NodeID
	indexRange       string
	write            []writeTarget
	writeIndexRange  string
	structure        ua.NodeID
	browse           ua.NodeID
	history          []ua.NodeID
	historyNotifiers []ua.NodeID
	historyStart     time.Duration
	eventNotifier    ua.NodeID
	eventType        ua.NodeID
	translateStart   ua.NodeID
	translatePath    []ua.QualifiedName
	methodObject     ua.NodeID
	method           ua.NodeID
	arguments        []float64
}

// parseNodes parses the node ids of cfg. Config.Validate has normally
// checked them already; errors here name the offending field all the
// same.
func parseNodes(cfg *config.Config) (nodeSet, error) {
	var firstErr error
	parse := func(field, text string) ua.NodeID {
		id, err := ua.ParseNodeID(text)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", field, err)
		}
		return id
	}
	parseList := func(field string, texts []string) []ua.NodeID {
		ids := make([]ua.NodeID, len(texts))
		for i, text := range texts {
			ids[i] = parse(fmt.Sprintf("%s[%d]", field, i), text)
		}
		return ids
	}

	nodes := nodeSet{
		read:             parseList("nodes.read", cfg.Nodes.Read),
		readIndexRange:   parseList("nodes.read_index_range", cfg.Nodes.ReadIndexRange),
		indexRange:       cfg.Nodes.IndexRange,
		writeIndexRange:  cfg.Nodes.WriteIndexRange,
		structure:        parse("nodes.structure", cfg.Nodes.Structure),
		browse:           parse("nodes.browse", cfg.Nodes.Browse),
		history:          parseList("nodes.history", cfg.Nodes.History),
		historyNotifiers: parseList("nodes.history_notifiers", cfg.Nodes.HistoryNotifiers),
		historyStart:     config.Duration(cfg.Nodes.HistoryStart),
		eventNotifier:    parse("nodes.event_notifier", cfg.Nodes.EventNotifier),
		eventType:        parse("nodes.event_type", cfg.Nodes.EventType),
		translateStart:   parse("nodes.translate_start", cfg.Nodes.TranslateStart),
		methodObject:     parse("method.object", cfg.Method.Object),
		method:           parse("method.method", cfg.Method.Method),
		arguments:        cfg.Method.Arguments,
	}
	for i, write := range cfg.Nodes.Write {
		id := parse(fmt.Sprintf("nodes.write[%d].node", i), write.Node)
		nodes.write = append(nodes.write, writeTarget{node: id, value: write.Value})
	}
	nodes.translatePath = append(nodes.translatePath, ua.ParseQualifiedName(cfg.Nodes.TranslatePath))
	return nodes, firstErr
}

// remap rewrites every id from the namespace table from into to. Ids
// whose namespace cannot be mapped pass through unchanged and are
// returned so the caller can report them.
func (nodes nodeSet) remap(from, to ua.NamespaceTable) (nodeSet, []ua.NodeID) {
	var unmapped []ua.NodeID
	one := func(id ua.NodeID) ua.NodeID {
		mapped, ok := ua.MapNodeID(id, from, to)
		if !ok {
			unmapped = append(unmapped, id)
		}
		return mapped
	}
	list := func(ids []ua.NodeID) []ua.NodeID {
		mapped := make([]ua.NodeID, len(ids))
		for i, id := range ids {
			mapped[i] = one(id)
		}
		return mapped
	}

	result := nodes
	result.read = list(nodes.read)
	result.readIndexRange = list(nodes.readIndexRange)
	result.write = make([]writeTarget, len(nodes.write))
	for i, target := range nodes.write {
		result.write[i] = writeTarget{node: one(target.node), value: target.value}
	}
	result.structure = one(nodes.structure)
	result.browse = one(nodes.browse)
	result.history = list(nodes.history)
	result.historyNotifiers = list(nodes.historyNotifiers)
	result.eventNotifier = one(nodes.eventNotifier)
	result.eventType = one(nodes.eventType)
	result.translateStart = one(nodes.translateStart)
	result.methodObject = one(nodes.methodObject)
	result.method = one(nodes.method)

	result.translatePath = make([]ua.QualifiedName, len(nodes.translatePath))
	for i, name := range nodes.translatePath {
		// A browse name's namespace maps like a node id's.
		probe := one(ua.NewStringNodeID(name.NamespaceIndex, name.Name))
		result.translatePath[i] = ua.QualifiedName{NamespaceIndex: probe.Namespace, Name: name.Name}
	}
	return result, unmapped
}
