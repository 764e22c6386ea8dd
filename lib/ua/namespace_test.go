// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import "testing"

func TestMapNodeID(t *testing.T) {
	configured := NamespaceTable{"http://opcfoundation.org/UA/", "urn:demo", "urn:missing"}
	server := NamespaceTable{"http://opcfoundation.org/UA/", "urn:server", "urn:other", "urn:demo"}

	mapped, ok := MapNodeID(NewStringNodeID(1, "Boiler1"), configured, server)
	if !ok || mapped != NewStringNodeID(3, "Boiler1") {
		t.Errorf("MapNodeID = %v, %v; want ns=3;s=Boiler1, true", mapped, ok)
	}

	base := NewNumericNodeID(0, 2258)
	if mapped, ok := MapNodeID(base, configured, server); !ok || mapped != base {
		t.Errorf("namespace 0 mapped to %v, %v", mapped, ok)
	}

	unmapped := NewStringNodeID(2, "Gone")
	if mapped, ok := MapNodeID(unmapped, configured, server); ok || mapped != unmapped {
		t.Errorf("unknown URI mapped to %v, %v; want pass-through", mapped, ok)
	}

	outOfRange := NewStringNodeID(9, "Far")
	if mapped, ok := MapNodeID(outOfRange, configured, server); ok || mapped != outOfRange {
		t.Errorf("out-of-range index mapped to %v, %v; want pass-through", mapped, ok)
	}
}

func TestParseIndexRange(t *testing.T) {
	r, err := ParseIndexRange("1:3")
	if err != nil || r.First != 1 || r.Last != 3 || r.Count() != 3 {
		t.Errorf("ParseIndexRange(1:3) = %+v, %v", r, err)
	}
	r, err = ParseIndexRange("4")
	if err != nil || r.Count() != 1 || r.String() != "4" {
		t.Errorf("ParseIndexRange(4) = %+v, %v", r, err)
	}
	for _, text := range []string{"", "3:1", "2:2", "-1", "a:b"} {
		if _, err := ParseIndexRange(text); err == nil {
			t.Errorf("ParseIndexRange(%q) succeeded", text)
		}
	}
}
