// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

// ExtensionObject is a structured value. Fields are positional and
// follow the field order of the StructureDefinition named by TypeName.
type ExtensionObject struct {
	TypeName string    `cbor:"type_name"`
	Fields   []Variant `cbor:"fields"`
}

// Clone returns a deep copy of the structure tree. Leaf values are
// shared; callers replace leaves rather than mutating them.
func (object *ExtensionObject) Clone() *ExtensionObject {
	if object == nil {
		return nil
	}
	clone := &ExtensionObject{TypeName: object.TypeName, Fields: make([]Variant, len(object.Fields))}
	for i, field := range object.Fields {
		switch nested := field.Value.(type) {
		case *ExtensionObject:
			field.Value = nested.Clone()
		case []*ExtensionObject:
			elements := make([]*ExtensionObject, len(nested))
			for j, element := range nested {
				elements[j] = element.Clone()
			}
			field.Value = elements
		}
		clone.Fields[i] = field
	}
	return clone
}

// FieldDefinition describes one field of a structure.
type FieldDefinition struct {
	Name     string `cbor:"name"`
	DataType TypeID `cbor:"data_type"`

	// StructureName names the field's StructureDefinition when
	// DataType is TypeExtensionObject.
	StructureName string `cbor:"structure_name,omitempty"`

	Array bool `cbor:"array,omitempty"`
}

// TypeName is the name shown for the field's type: the structure name
// for nested structures, the built-in type name otherwise.
func (field FieldDefinition) TypeName() string {
	if field.DataType == TypeExtensionObject && field.StructureName != "" {
		return field.StructureName
	}
	return field.DataType.String()
}

// StructureDefinition is the schema of one structured data type.
type StructureDefinition struct {
	Name   string            `cbor:"name"`
	Fields []FieldDefinition `cbor:"fields"`
}

// FieldIndex returns the position of the named field, or -1.
func (definition StructureDefinition) FieldIndex(name string) int {
	for i, field := range definition.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// Dictionary maps structure type names to their definitions. It is
// loaded from the server once per session.
type Dictionary map[string]StructureDefinition

// NewDictionary indexes definitions by name.
func NewDictionary(definitions ...StructureDefinition) Dictionary {
	dictionary := make(Dictionary, len(definitions))
	for _, definition := range definitions {
		dictionary[definition.Name] = definition
	}
	return dictionary
}

// Lookup returns the definition for name.
func (dictionary Dictionary) Lookup(name string) (StructureDefinition, bool) {
	definition, ok := dictionary[name]
	return definition, ok
}
