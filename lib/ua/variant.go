// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/codec"
)

// TypeID is the built-in data type of a Variant. Values follow the
// conventional numbering so they can be exchanged with type
// dictionaries unchanged.
type TypeID byte

const (
	TypeNull            TypeID = 0
	TypeBoolean         TypeID = 1
	TypeByte            TypeID = 3
	TypeInt16           TypeID = 4
	TypeUInt16          TypeID = 5
	TypeInt32           TypeID = 6
	TypeUInt32          TypeID = 7
	TypeInt64           TypeID = 8
	TypeUInt64          TypeID = 9
	TypeFloat           TypeID = 10
	TypeDouble          TypeID = 11
	TypeString          TypeID = 12
	TypeDateTime        TypeID = 13
	TypeByteString      TypeID = 15
	TypeNodeID          TypeID = 17
	TypeStatusCode      TypeID = 19
	TypeQualifiedName   TypeID = 20
	TypeLocalizedText   TypeID = 21
	TypeExtensionObject TypeID = 22
)

// scalarTypes maps each TypeID to the Go type of a scalar value.
var scalarTypes = map[TypeID]reflect.Type{
	TypeBoolean:         reflect.TypeFor[bool](),
	TypeByte:            reflect.TypeFor[byte](),
	TypeInt16:           reflect.TypeFor[int16](),
	TypeUInt16:          reflect.TypeFor[uint16](),
	TypeInt32:           reflect.TypeFor[int32](),
	TypeUInt32:          reflect.TypeFor[uint32](),
	TypeInt64:           reflect.TypeFor[int64](),
	TypeUInt64:          reflect.TypeFor[uint64](),
	TypeFloat:           reflect.TypeFor[float32](),
	TypeDouble:          reflect.TypeFor[float64](),
	TypeString:          reflect.TypeFor[string](),
	TypeDateTime:        reflect.TypeFor[time.Time](),
	TypeByteString:      reflect.TypeFor[[]byte](),
	TypeNodeID:          reflect.TypeFor[NodeID](),
	TypeStatusCode:      reflect.TypeFor[StatusCode](),
	TypeQualifiedName:   reflect.TypeFor[QualifiedName](),
	TypeLocalizedText:   reflect.TypeFor[LocalizedText](),
	TypeExtensionObject: reflect.TypeFor[*ExtensionObject](),
}

var typeNames = map[TypeID]string{
	TypeNull:            "Null",
	TypeBoolean:         "Boolean",
	TypeByte:            "Byte",
	TypeInt16:           "Int16",
	TypeUInt16:          "UInt16",
	TypeInt32:           "Int32",
	TypeUInt32:          "UInt32",
	TypeInt64:           "Int64",
	TypeUInt64:          "UInt64",
	TypeFloat:           "Float",
	TypeDouble:          "Double",
	TypeString:          "String",
	TypeDateTime:        "DateTime",
	TypeByteString:      "ByteString",
	TypeNodeID:          "NodeId",
	TypeStatusCode:      "StatusCode",
	TypeQualifiedName:   "QualifiedName",
	TypeLocalizedText:   "LocalizedText",
	TypeExtensionObject: "ExtensionObject",
}

func (id TypeID) String() string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return "Type(" + strconv.Itoa(int(id)) + ")"
}

// Variant is a self-describing value: a type tag, an array flag, and
// the Go value. Value holds the Go type listed for the tag (a slice of
// it when Array is set), or nil for TypeNull.
type Variant struct {
	Type  TypeID
	Array bool
	Value any
}

// NewVariant wraps a Go value, deriving the type tag from its dynamic
// type. It panics for Go types that have no TypeID, which is a
// programming error rather than a data error.
func NewVariant(value any) Variant {
	if value == nil {
		return Variant{}
	}
	goType := reflect.TypeOf(value)
	// Scalars first: []byte is a ByteString, not an array of Byte.
	for id, scalar := range scalarTypes {
		if goType == scalar {
			return Variant{Type: id, Value: value}
		}
	}
	for id, scalar := range scalarTypes {
		if goType == reflect.SliceOf(scalar) {
			return Variant{Type: id, Array: true, Value: value}
		}
	}
	panic(fmt.Sprintf("ua: no variant type for %T", value))
}

// IsNull reports whether the variant holds no value.
func (v Variant) IsNull() bool { return v.Type == TypeNull || v.Value == nil }

// Bool returns the value of a scalar Boolean variant.
func (v Variant) Bool() (bool, bool) {
	value, ok := v.Value.(bool)
	return value, ok && !v.Array
}

// NodeID returns the value of a scalar NodeId variant.
func (v Variant) NodeID() (NodeID, bool) {
	value, ok := v.Value.(NodeID)
	return value, ok && !v.Array
}

// Bytes returns the value of a scalar ByteString variant.
func (v Variant) Bytes() ([]byte, bool) {
	value, ok := v.Value.([]byte)
	return value, ok && !v.Array
}

// Float64 converts any scalar numeric variant to float64.
func (v Variant) Float64() (float64, bool) {
	if v.Array {
		return 0, false
	}
	switch value := v.Value.(type) {
	case byte:
		return float64(value), true
	case int16:
		return float64(value), true
	case uint16:
		return float64(value), true
	case int32:
		return float64(value), true
	case uint32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint64:
		return float64(value), true
	case float32:
		return float64(value), true
	case float64:
		return value, true
	}
	return 0, false
}

// ExtensionObject returns the value of a scalar structure variant.
func (v Variant) ExtensionObject() (*ExtensionObject, bool) {
	value, ok := v.Value.(*ExtensionObject)
	return value, ok && value != nil && !v.Array
}

// Len returns the element count of an array variant, 0 otherwise.
func (v Variant) Len() int {
	if !v.Array || v.Value == nil {
		return 0
	}
	return reflect.ValueOf(v.Value).Len()
}

// Index returns element i of an array variant as a scalar variant.
func (v Variant) Index(i int) Variant {
	return Variant{Type: v.Type, Value: reflect.ValueOf(v.Value).Index(i).Interface()}
}

// String formats the value for console output. Arrays are bracketed
// and comma separated.
func (v Variant) String() string {
	if v.IsNull() {
		return "(null)"
	}
	if v.Array {
		elements := make([]string, v.Len())
		for i := range elements {
			elements[i] = v.Index(i).String()
		}
		return "[" + strings.Join(elements, ", ") + "]"
	}
	return FormatScalar(v.Value)
}

// FormatScalar formats one scalar value the way console output shows
// it: timestamps in RFC 3339 with milliseconds, byte strings as hex,
// floats in their shortest exact form.
func FormatScalar(value any) string {
	switch typed := value.(type) {
	case nil:
		return "(null)"
	case bool:
		return strconv.FormatBool(typed)
	case float32:
		return strconv.FormatFloat(float64(typed), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case string:
		return typed
	case time.Time:
		return typed.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	case []byte:
		return hex.EncodeToString(typed)
	case *ExtensionObject:
		if typed == nil {
			return "(null)"
		}
		return typed.TypeName + "{...}"
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// variantWire is the CBOR shape of a Variant. Value stays raw until
// the type tag is known.
type variantWire struct {
	Type  TypeID           `cbor:"type"`
	Array bool             `cbor:"array,omitempty"`
	Value codec.RawMessage `cbor:"value,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (v Variant) MarshalCBOR() ([]byte, error) {
	wire := variantWire{Type: v.Type, Array: v.Array}
	if !v.IsNull() {
		raw, err := codec.Marshal(v.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s variant: %w", v.Type, err)
		}
		wire.Value = raw
	}
	return codec.Marshal(wire)
}

// UnmarshalCBOR implements cbor.Unmarshaler, restoring the concrete Go
// type for the tag.
func (v *Variant) UnmarshalCBOR(data []byte) error {
	var wire variantWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return err
	}
	*v = Variant{Type: wire.Type, Array: wire.Array}
	if wire.Type == TypeNull || len(wire.Value) == 0 {
		v.Value = nil
		return nil
	}

	goType, ok := scalarTypes[wire.Type]
	if !ok {
		return fmt.Errorf("decoding variant: unsupported type %s", wire.Type)
	}
	if wire.Array {
		goType = reflect.SliceOf(goType)
	}
	target := reflect.New(goType)
	if err := codec.Unmarshal(wire.Value, target.Interface()); err != nil {
		return fmt.Errorf("decoding %s variant: %w", wire.Type, err)
	}
	v.Value = target.Elem().Interface()
	return nil
}

// DataValue is a variant with its status and timestamps, as returned by
// reads and history reads.
type DataValue struct {
	Value           Variant    `cbor:"value"`
	Status          StatusCode `cbor:"status,omitempty"`
	SourceTimestamp time.Time  `cbor:"source_timestamp"`
	ServerTimestamp time.Time  `cbor:"server_timestamp"`
}
