// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// MaxDepth bounds structure nesting for both Build and Render.
const MaxDepth = 32

// indentUnit is one level of indentation.
const indentUnit = "  "

var (
	// ErrDepthExceeded is returned when nesting exceeds MaxDepth.
	ErrDepthExceeded = errors.New("structure nesting exceeds maximum depth")

	// ErrUnknownStructure is returned when a value or field names a
	// structure type the dictionary does not define.
	ErrUnknownStructure = errors.New("unknown structure type")
)

// Shape discriminates the kinds of field a Node can hold.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeStructure
	ShapeScalarArray
	ShapeStructureArray
)

// Node is one field of a structured value, or the root structure.
type Node struct {
	// Name is the field name. For the root it is empty.
	Name string

	// TypeName is the field's type: the structure name, or the
	// built-in type name for scalars.
	TypeName string

	Shape Shape

	// Value is set for ShapeScalar.
	Value ua.Variant

	// Values is set for ShapeScalarArray.
	Values []ua.Variant

	// Fields is set for ShapeStructure.
	Fields []Node

	// Elements is set for ShapeStructureArray; each element holds the
	// fields of one structure.
	Elements [][]Node
}

// Build constructs the tree for value using the definitions in
// dictionary. The returned root has ShapeStructure and TypeName equal
// to value.TypeName.
func Build(value *ua.ExtensionObject, dictionary ua.Dictionary) (Node, error) {
	if value == nil {
		return Node{}, fmt.Errorf("building render tree: nil structure")
	}
	fields, err := buildFields(value, dictionary, 1)
	if err != nil {
		return Node{}, err
	}
	return Node{TypeName: value.TypeName, Shape: ShapeStructure, Fields: fields}, nil
}

func buildFields(value *ua.ExtensionObject, dictionary ua.Dictionary, depth int) ([]Node, error) {
	if depth > MaxDepth {
		return nil, ErrDepthExceeded
	}
	definition, ok := dictionary.Lookup(value.TypeName)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStructure, value.TypeName)
	}

	nodes := make([]Node, 0, len(definition.Fields))
	for i, field := range definition.Fields {
		var variant ua.Variant
		if i < len(value.Fields) {
			variant = value.Fields[i]
		}
		node := Node{Name: field.Name, TypeName: field.TypeName()}

		switch {
		case field.DataType == ua.TypeExtensionObject && field.Array:
			node.Shape = ShapeStructureArray
			elements, _ := variant.Value.([]*ua.ExtensionObject)
			for _, element := range elements {
				if element == nil {
					node.Elements = append(node.Elements, nil)
					continue
				}
				children, err := buildFields(element, dictionary, depth+1)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", field.Name, err)
				}
				node.Elements = append(node.Elements, children)
			}
		case field.DataType == ua.TypeExtensionObject:
			node.Shape = ShapeStructure
			if nested, ok := variant.ExtensionObject(); ok {
				children, err := buildFields(nested, dictionary, depth+1)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", field.Name, err)
				}
				node.Fields = children
			}
		case field.Array:
			node.Shape = ShapeScalarArray
			for j := range variant.Len() {
				node.Values = append(node.Values, variant.Index(j))
			}
		default:
			node.Shape = ShapeScalar
			node.Value = variant
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Render formats a tree produced by Build. Lines are joined with "\n"
// and the result has no trailing newline.
func Render(root Node) (string, error) {
	lines := []string{root.TypeName}
	var err error
	lines, err = renderFields(lines, root.Fields, 1)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// RenderValue is Build followed by Render.
func RenderValue(value *ua.ExtensionObject, dictionary ua.Dictionary) (string, error) {
	root, err := Build(value, dictionary)
	if err != nil {
		return "", err
	}
	return Render(root)
}

func renderFields(lines []string, fields []Node, depth int) ([]string, error) {
	if depth > MaxDepth {
		return nil, ErrDepthExceeded
	}
	indent := strings.Repeat(indentUnit, depth)
	var err error
	for _, field := range fields {
		switch field.Shape {
		case ShapeScalar:
			lines = append(lines, indent+field.Name+" = "+field.Value.String())
		case ShapeStructure:
			lines = append(lines, indent+field.Name)
			if lines, err = renderFields(lines, field.Fields, depth+1); err != nil {
				return nil, err
			}
		case ShapeScalarArray:
			lines = append(lines, indent+field.Name)
			for i, value := range field.Values {
				lines = append(lines, indent+indentUnit+elementLabel(field.TypeName, i)+": "+value.String())
			}
		case ShapeStructureArray:
			lines = append(lines, indent+field.Name)
			for i, element := range field.Elements {
				lines = append(lines, indent+indentUnit+elementLabel(field.TypeName, i))
				if lines, err = renderFields(lines, element, depth+2); err != nil {
					return nil, err
				}
			}
		}
	}
	return lines, nil
}

func elementLabel(typeName string, index int) string {
	return typeName + "[" + strconv.Itoa(index) + "]"
}
