// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusSeverity(t *testing.T) {
	if !StatusGood.IsGood() || StatusGood.IsBad() {
		t.Error("Good must be good")
	}
	if StatusUncertain.IsGood() || StatusUncertain.IsBad() {
		t.Error("Uncertain is neither good nor bad")
	}
	if !StatusBadNodeIDUnknown.IsBad() {
		t.Error("BadNodeIdUnknown must be bad")
	}
	if StatusGood.Err() != nil {
		t.Error("Good.Err() must be nil")
	}
	wrapped := fmt.Errorf("read: %w", StatusBadNotWritable.Err())
	if !errors.Is(wrapped, StatusBadNotWritable) {
		t.Errorf("errors.Is(%v, BadNotWritable) = false", wrapped)
	}
}

func TestStatusByName(t *testing.T) {
	for code, name := range statusNames {
		got, ok := StatusByName(name)
		if !ok || got != code {
			t.Errorf("StatusByName(%q) = %v, %v; want %v", name, got, ok, code)
		}
	}
	if _, ok := StatusByName("NotAStatus"); ok {
		t.Error("StatusByName accepted an unknown name")
	}
	if got := StatusCode(0x80FF0000).String(); got != "0x80FF0000" {
		t.Errorf("unnamed code String() = %q", got)
	}
}
