// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/render"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// readTargets returns the nodes the read operations use: the registered
// handles when there are any, the configured read nodes otherwise.
func (c *Controller) readTargets() []ua.NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.registered) > 0 {
		return append([]ua.NodeID(nil), c.registered...)
	}
	return c.nodes.read
}

func valueRequests(ids []ua.NodeID, indexRange string) []remote.ReadValueID {
	requests := make([]remote.ReadValueID, len(ids))
	for i, id := range ids {
		requests[i] = remote.ReadValueID{NodeID: id, Attribute: ua.AttributeValue, IndexRange: indexRange}
	}
	return requests
}

func (c *Controller) read(ctx context.Context) Outcome {
	return c.readValues(ctx, "Read", valueRequests(c.readTargets(), ""))
}

func (c *Controller) readIndexRange(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	return c.readValues(ctx, "Read with index range", valueRequests(nodes.readIndexRange, nodes.indexRange))
}

func (c *Controller) readValues(ctx context.Context, operation string, requests []remote.ReadValueID) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	values, err := c.service.Read(requestCtx, requests)
	if err != nil {
		return c.failed(operation, err)
	}
	c.print(c.readReport(ctx, operation, requests, values)...)
	return OutcomeDone
}

func (c *Controller) readAsync(ctx context.Context) Outcome {
	requests := valueRequests(c.readTargets(), "")
	c.startAsync(ctx, func(ctx context.Context, generation uint64) {
		requestCtx, cancel := c.requestContext(ctx)
		defer cancel()
		values, err := c.service.Read(requestCtx, requests)
		if !c.current(generation) {
			c.logger.Debug("discarding read completion of a closed session")
			return
		}
		if err != nil {
			c.failed("Read async", err)
			return
		}
		c.print(c.readReport(ctx, "Read async", requests, values)...)
	})
	c.print("Read async started")
	return OutcomeDone
}

// readReport formats read results, one entry per request. Structure
// values are expanded with the server's type dictionary.
func (c *Controller) readReport(ctx context.Context, operation string, requests []remote.ReadValueID, values []ua.DataValue) []string {
	lines := []string{operation + " succeeded"}
	for i, value := range values {
		if i >= len(requests) {
			break
		}
		label := fmt.Sprintf("  [%d] %s", i, requests[i].NodeID)
		if value.Status.IsBad() {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value.Status))
			continue
		}
		object, isStructure := value.Value.ExtensionObject()
		if !isStructure {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value.Value))
			continue
		}
		text, err := c.renderStructure(ctx, object)
		if err != nil {
			c.logger.Warn("rendering structure failed", "node_id", requests[i].NodeID.String(), "error", err)
			lines = append(lines, fmt.Sprintf("%s: %s (%v)", label, value.Value, err))
			continue
		}
		lines = append(lines, label+":")
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, "    "+line)
		}
	}
	return lines
}

// renderStructure renders object with the session's type dictionary,
// loading the dictionary on first use.
func (c *Controller) renderStructure(ctx context.Context, object *ua.ExtensionObject) (string, error) {
	dictionary, err := c.loadDictionary(ctx)
	if err != nil {
		return "", err
	}
	return render.RenderValue(object, dictionary)
}

func (c *Controller) loadDictionary(ctx context.Context) (ua.Dictionary, error) {
	c.mu.Lock()
	dictionary := c.dictionary
	generation := c.generation
	c.mu.Unlock()
	if dictionary != nil {
		return dictionary, nil
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	definitions, err := c.service.DataTypes(requestCtx)
	if err != nil {
		return nil, fmt.Errorf("loading data types: %w", err)
	}
	dictionary = ua.NewDictionary(definitions...)

	c.mu.Lock()
	if c.generation == generation {
		c.dictionary = dictionary
	}
	c.mu.Unlock()
	return dictionary, nil
}

func (c *Controller) writeRequests() []remote.WriteValue {
	nodes := c.connectedNodes()
	requests := make([]remote.WriteValue, len(nodes.write))
	for i, target := range nodes.write {
		requests[i] = remote.WriteValue{
			NodeID:    target.node,
			Attribute: ua.AttributeValue,
			Value:     ua.DataValue{Value: ua.NewVariant(target.value)},
		}
	}
	return requests
}

func (c *Controller) write(ctx context.Context) Outcome {
	return c.writeValues(ctx, "Write", c.writeRequests())
}

// writeIndexRange clears the configured element range of the first
// index range node, a Boolean array.
func (c *Controller) writeIndexRange(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	if len(nodes.readIndexRange) == 0 {
		return c.aborted("No index range nodes configured.")
	}
	indexRange, err := ua.ParseIndexRange(nodes.writeIndexRange)
	if err != nil {
		return c.aborted(fmt.Sprintf("Invalid write index range: %v.", err))
	}
	return c.writeValues(ctx, "Write with index range", []remote.WriteValue{{
		NodeID:     nodes.readIndexRange[0],
		Attribute:  ua.AttributeValue,
		IndexRange: nodes.writeIndexRange,
		Value:      ua.DataValue{Value: ua.NewVariant(make([]bool, indexRange.Count()))},
	}})
}

func (c *Controller) writeValues(ctx context.Context, operation string, requests []remote.WriteValue) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	statuses, err := c.service.Write(requestCtx, requests)
	if err != nil {
		return c.failed(operation, err)
	}
	c.print(writeReport(operation, requests, statuses)...)
	return OutcomeDone
}

func writeReport(operation string, requests []remote.WriteValue, statuses []ua.StatusCode) []string {
	lines := []string{operation + " succeeded"}
	for i, status := range statuses {
		if i < len(requests) {
			lines = append(lines, fmt.Sprintf("  [%d] %s: %s", i, requests[i].NodeID, status))
		}
	}
	return lines
}

func (c *Controller) writeAsync(ctx context.Context) Outcome {
	requests := c.writeRequests()
	c.startAsync(ctx, func(ctx context.Context, generation uint64) {
		requestCtx, cancel := c.requestContext(ctx)
		defer cancel()
		statuses, err := c.service.Write(requestCtx, requests)
		if !c.current(generation) {
			c.logger.Debug("discarding write completion of a closed session")
			return
		}
		if err != nil {
			c.failed("Write async", err)
			return
		}
		c.print(writeReport("Write async", requests, statuses)...)
	})
	c.print("Write async started")
	return OutcomeDone
}

// writeStructure reads the configured structure, rewrites its String
// fields, and writes it back.
func (c *Controller) writeStructure(ctx context.Context) Outcome {
	id := c.connectedNodes().structure
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	values, err := c.service.Read(requestCtx, valueRequests([]ua.NodeID{id}, ""))
	if err == nil && len(values) == 1 {
		err = values[0].Status.Err()
	}
	if err != nil {
		return c.failed("WriteStructure read", err)
	}
	current, ok := values[0].Value.ExtensionObject()
	if !ok {
		c.printf("WriteStructure failed: %s holds a %s, not a structure", id, values[0].Value.Type)
		return OutcomeFailed
	}
	dictionary, err := c.loadDictionary(ctx)
	if err != nil {
		return c.failed("WriteStructure", err)
	}
	definition, ok := dictionary.Lookup(current.TypeName)
	if !ok {
		return c.failed("WriteStructure", fmt.Errorf("%w: %s", render.ErrUnknownStructure, current.TypeName))
	}

	updated := current.Clone()
	for i, field := range definition.Fields {
		if i >= len(updated.Fields) || field.Array {
			continue
		}
		switch field.DataType {
		case ua.TypeString:
			updated.Fields[i] = ua.NewVariant("Generic " + field.Name)
		case ua.TypeUInt16:
			updated.Fields[i] = ua.NewVariant(uint16(123))
		case ua.TypeFloat:
			updated.Fields[i] = ua.NewVariant(float32(13.37))
		}
	}

	statuses, err := c.service.Write(requestCtx, []remote.WriteValue{{
		NodeID:    id,
		Attribute: ua.AttributeValue,
		Value:     ua.DataValue{Value: ua.NewVariant(updated)},
	}})
	if err != nil {
		return c.failed("WriteStructure", err)
	}
	lines := []string{"WriteStructure succeeded"}
	for _, status := range statuses {
		lines = append(lines, "  Write result "+status.String())
	}
	if text, err := render.RenderValue(updated, dictionary); err == nil {
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, "    "+line)
		}
	}
	c.print(lines...)
	return OutcomeDone
}

func (c *Controller) translate(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	path := remote.BrowsePath{StartNode: nodes.translateStart, Elements: nodes.translatePath}
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := c.service.TranslatePaths(requestCtx, []remote.BrowsePath{path})
	if err != nil {
		return c.failed("TranslateBrowsePathsToNodeIds", err)
	}

	lines := []string{"TranslateBrowsePathsToNodeIds succeeded"}
	for _, result := range results {
		if result.Status.IsBad() {
			lines = append(lines, fmt.Sprintf("  %s/%s: %s", path.StartNode, joinNames(path.Elements), result.Status))
			continue
		}
		for _, target := range result.Targets {
			lines = append(lines, fmt.Sprintf("  %s/%s -> %s", path.StartNode, joinNames(path.Elements), target))
		}
	}
	c.print(lines...)
	return OutcomeDone
}

func joinNames(names []ua.QualifiedName) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name.String()
	}
	return strings.Join(parts, "/")
}

func (c *Controller) call(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	arguments := make([]ua.Variant, len(nodes.arguments))
	for i, argument := range nodes.arguments {
		arguments[i] = ua.NewVariant(argument)
	}
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	result, err := c.service.Call(requestCtx, remote.CallRequest{
		ObjectID:  nodes.methodObject,
		MethodID:  nodes.method,
		Arguments: arguments,
	})
	if err == nil {
		err = result.Status.Err()
	}
	if err != nil {
		return c.failed("Call", err)
	}

	lines := []string{fmt.Sprintf("Call %s succeeded", nodes.method)}
	for i, output := range result.Outputs {
		lines = append(lines, fmt.Sprintf("  Output[%d]: %s", i, output))
	}
	c.print(lines...)
	return OutcomeDone
}

func (c *Controller) register(ctx context.Context) Outcome {
	nodes := c.connectedNodes().read
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	handles, err := c.service.RegisterNodes(requestCtx, nodes)
	if err != nil {
		return c.failed("RegisterNodes", err)
	}
	c.mu.Lock()
	c.registered = handles
	c.mu.Unlock()
	c.print(registerReport("RegisterNodes", nodes, handles)...)
	return OutcomeDone
}

func (c *Controller) registerAsync(ctx context.Context) Outcome {
	nodes := c.connectedNodes().read
	c.startAsync(ctx, func(ctx context.Context, generation uint64) {
		requestCtx, cancel := c.requestContext(ctx)
		defer cancel()
		handles, err := c.service.RegisterNodes(requestCtx, nodes)
		c.mu.Lock()
		current := c.currentLocked(generation)
		if current && err == nil {
			c.registered = handles
		}
		c.mu.Unlock()
		if !current {
			c.logger.Debug("discarding register completion of a closed session")
			return
		}
		if err != nil {
			c.failed("RegisterNodes async", err)
			return
		}
		c.print(registerReport("RegisterNodes async", nodes, handles)...)
	})
	c.print("RegisterNodes async started")
	return OutcomeDone
}

func registerReport(operation string, nodes, handles []ua.NodeID) []string {
	lines := []string{operation + " succeeded"}
	for i, handle := range handles {
		if i < len(nodes) {
			lines = append(lines, fmt.Sprintf("  %s -> %s", nodes[i], handle))
		}
	}
	return lines
}

func (c *Controller) unregister(ctx context.Context) Outcome {
	c.mu.Lock()
	handles := c.registered
	c.mu.Unlock()
	if len(handles) == 0 {
		return c.aborted("No nodes registered.")
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.service.UnregisterNodes(requestCtx, handles); err != nil {
		return c.failed("UnregisterNodes", err)
	}
	c.mu.Lock()
	c.registered = nil
	c.mu.Unlock()
	c.printf("UnregisterNodes succeeded for %d nodes", len(handles))
	return OutcomeDone
}
