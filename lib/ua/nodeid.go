// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNodeID is returned (wrapped) when a node identifier string
// cannot be parsed.
var ErrInvalidNodeID = errors.New("invalid node id")

// IdentifierType discriminates the identifier part of a NodeID.
type IdentifierType byte

const (
	IdentifierNumeric IdentifierType = iota
	IdentifierString
	IdentifierGUID
	IdentifierOpaque
)

// NodeID addresses a node in the remote address space. NodeID is
// comparable and can be used as a map key.
type NodeID struct {
	Namespace uint16
	Type      IdentifierType
	Numeric   uint32

	// Text holds the string identifier, the lowercase GUID text, or the
	// raw bytes of an opaque identifier.
	Text string
}

// NewNumericNodeID returns the numeric NodeID ns=namespace;i=id.
func NewNumericNodeID(namespace uint16, id uint32) NodeID {
	return NodeID{Namespace: namespace, Type: IdentifierNumeric, Numeric: id}
}

// NewStringNodeID returns the string NodeID ns=namespace;s=id.
func NewStringNodeID(namespace uint16, id string) NodeID {
	return NodeID{Namespace: namespace, Type: IdentifierString, Text: id}
}

// IsNull reports whether id is the null node id (ns=0;i=0).
func (id NodeID) IsNull() bool {
	return id == NodeID{}
}

// ParseNodeID parses the text form of a node id: an optional "ns=N;"
// prefix followed by one of "i=", "s=", "g=" or "b=" (base64).
func ParseNodeID(text string) (NodeID, error) {
	var id NodeID
	rest := strings.TrimSpace(text)
	if rest == "" {
		return id, fmt.Errorf("%w: empty string", ErrInvalidNodeID)
	}

	if strings.HasPrefix(rest, "ns=") {
		separator := strings.IndexByte(rest, ';')
		if separator < 0 {
			return id, fmt.Errorf("%w: %q has a namespace but no identifier", ErrInvalidNodeID, text)
		}
		namespace, err := strconv.ParseUint(rest[3:separator], 10, 16)
		if err != nil {
			return id, fmt.Errorf("%w: %q: namespace: %v", ErrInvalidNodeID, text, err)
		}
		id.Namespace = uint16(namespace)
		rest = rest[separator+1:]
	}

	if len(rest) < 2 || rest[1] != '=' {
		return id, fmt.Errorf("%w: %q", ErrInvalidNodeID, text)
	}
	value := rest[2:]
	switch rest[0] {
	case 'i':
		numeric, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return id, fmt.Errorf("%w: %q: %v", ErrInvalidNodeID, text, err)
		}
		id.Type = IdentifierNumeric
		id.Numeric = uint32(numeric)
	case 's':
		if value == "" {
			return id, fmt.Errorf("%w: %q has an empty string identifier", ErrInvalidNodeID, text)
		}
		id.Type = IdentifierString
		id.Text = value
	case 'g':
		if len(value) != 36 {
			return id, fmt.Errorf("%w: %q: malformed GUID", ErrInvalidNodeID, text)
		}
		id.Type = IdentifierGUID
		id.Text = strings.ToLower(value)
	case 'b':
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return id, fmt.Errorf("%w: %q: %v", ErrInvalidNodeID, text, err)
		}
		id.Type = IdentifierOpaque
		id.Text = string(raw)
	default:
		return id, fmt.Errorf("%w: %q: unknown identifier type %q", ErrInvalidNodeID, text, rest[0])
	}
	return id, nil
}

// MustParseNodeID is ParseNodeID for identifiers known at compile time.
// It panics on malformed input.
func MustParseNodeID(text string) NodeID {
	id, err := ParseNodeID(text)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the text form accepted by ParseNodeID. The namespace
// prefix is omitted for namespace 0.
func (id NodeID) String() string {
	var identifier string
	switch id.Type {
	case IdentifierNumeric:
		identifier = "i=" + strconv.FormatUint(uint64(id.Numeric), 10)
	case IdentifierString:
		identifier = "s=" + id.Text
	case IdentifierGUID:
		identifier = "g=" + id.Text
	case IdentifierOpaque:
		identifier = "b=" + base64.StdEncoding.EncodeToString([]byte(id.Text))
	}
	if id.Namespace == 0 {
		return identifier
	}
	return "ns=" + strconv.FormatUint(uint64(id.Namespace), 10) + ";" + identifier
}

// MarshalText implements encoding.TextMarshaler.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeID) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// QualifiedName is a namespace-qualified browse name.
type QualifiedName struct {
	NamespaceIndex uint16 `cbor:"ns,omitempty"`
	Name           string `cbor:"name"`
}

// String returns "N:Name", or just "Name" in namespace 0.
func (name QualifiedName) String() string {
	if name.NamespaceIndex == 0 {
		return name.Name
	}
	return strconv.FormatUint(uint64(name.NamespaceIndex), 10) + ":" + name.Name
}

// ParseQualifiedName parses "N:Name" or "Name".
func ParseQualifiedName(text string) QualifiedName {
	if separator := strings.IndexByte(text, ':'); separator > 0 {
		if namespace, err := strconv.ParseUint(text[:separator], 10, 16); err == nil {
			return QualifiedName{NamespaceIndex: uint16(namespace), Name: text[separator+1:]}
		}
	}
	return QualifiedName{Name: text}
}

// LocalizedText is human-readable text with an optional locale.
type LocalizedText struct {
	Locale string `cbor:"locale,omitempty"`
	Text   string `cbor:"text"`
}

func (text LocalizedText) String() string { return text.Text }
