// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import (
	"errors"
	"testing"
)

func TestParseNodeID(t *testing.T) {
	tests := []struct {
		text string
		want NodeID
	}{
		{"i=2258", NewNumericNodeID(0, 2258)},
		{"ns=1;i=1005", NewNumericNodeID(1, 1005)},
		{"ns=2;s=Demo.Static.Scalar.Double", NewStringNodeID(2, "Demo.Static.Scalar.Double")},
		{"ns=3;g=0C3A2B1D-0000-4000-8000-00000000ABCD", NodeID{Namespace: 3, Type: IdentifierGUID, Text: "0c3a2b1d-0000-4000-8000-00000000abcd"}},
		{"ns=4;b=AQID", NodeID{Namespace: 4, Type: IdentifierOpaque, Text: "\x01\x02\x03"}},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got, err := ParseNodeID(test.text)
			if err != nil {
				t.Fatalf("ParseNodeID(%q): %v", test.text, err)
			}
			if got != test.want {
				t.Errorf("ParseNodeID(%q) = %#v, want %#v", test.text, got, test.want)
			}
		})
	}
}

func TestParseNodeIDRejectsMalformed(t *testing.T) {
	for _, text := range []string{"", "ns=2", "ns=x;i=1", "i=abc", "s=", "q=1", "ns=70000;i=1"} {
		if _, err := ParseNodeID(text); !errors.Is(err, ErrInvalidNodeID) {
			t.Errorf("ParseNodeID(%q) error = %v, want ErrInvalidNodeID", text, err)
		}
	}
}

func TestNodeIDStringRoundTrips(t *testing.T) {
	for _, text := range []string{"i=85", "ns=2;s=Demo.Massfolder_Static", "ns=4;b=AQID"} {
		id := MustParseNodeID(text)
		if id.String() != text {
			t.Errorf("String() = %q, want %q", id.String(), text)
		}
	}
}

func TestParseQualifiedName(t *testing.T) {
	if got := ParseQualifiedName("2:FillLevelSetPoint"); got != (QualifiedName{NamespaceIndex: 2, Name: "FillLevelSetPoint"}) {
		t.Errorf("got %+v", got)
	}
	if got := ParseQualifiedName("EventId"); got != (QualifiedName{Name: "EventId"}) {
		t.Errorf("got %+v", got)
	}
}
