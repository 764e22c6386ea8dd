// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexRange selects a contiguous, inclusive span of a one-dimensional
// array value: "3" selects one element, "1:3" three.
type IndexRange struct {
	First int
	Last  int
}

// ParseIndexRange parses the text form. The empty string is rejected;
// callers treat an absent range as "whole value" before parsing.
func ParseIndexRange(text string) (IndexRange, error) {
	firstText, lastText, isSpan := strings.Cut(text, ":")
	first, err := strconv.Atoi(firstText)
	if err != nil || first < 0 {
		return IndexRange{}, fmt.Errorf("%w: %q", StatusBadIndexRangeInvalid, text)
	}
	if !isSpan {
		return IndexRange{First: first, Last: first}, nil
	}
	last, err := strconv.Atoi(lastText)
	if err != nil || last <= first {
		return IndexRange{}, fmt.Errorf("%w: %q", StatusBadIndexRangeInvalid, text)
	}
	return IndexRange{First: first, Last: last}, nil
}

// Count is the number of elements selected.
func (r IndexRange) Count() int { return r.Last - r.First + 1 }

func (r IndexRange) String() string {
	if r.First == r.Last {
		return strconv.Itoa(r.First)
	}
	return strconv.Itoa(r.First) + ":" + strconv.Itoa(r.Last)
}
